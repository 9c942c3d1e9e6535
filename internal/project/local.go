package project

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"

	"go.uber.org/zap"

	"github.com/simonyos/agentcore/internal/ignore"
	"github.com/simonyos/agentcore/internal/validate"
)

// DefaultProject names the workspace directory itself.
const DefaultProject = "."

// LocalStore keeps each project in <workspace>/<projectID> on the local
// disk. DefaultProject (or "") is the workspace itself.
type LocalStore struct {
	workspace string
	log       *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

var _ Store = (*LocalStore)(nil)

// NewLocalStore returns a store rooted at workspace.
func NewLocalStore(workspace string, log *zap.Logger) (*LocalStore, error) {
	abs, err := validate.Canonical(workspace)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace: %w", err)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalStore{workspace: abs, log: log, locks: make(map[string]*sync.RWMutex)}, nil
}

func (s *LocalStore) lock(projectID string) *sync.RWMutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[projectID]
	if !ok {
		l = &sync.RWMutex{}
		s.locks[projectID] = l
	}
	return l
}

func (s *LocalStore) Root(projectID string) (string, error) {
	if projectID == "" || projectID == DefaultProject {
		return s.workspace, nil
	}
	if strings.ContainsAny(projectID, `/\`) || projectID == ".." || strings.ContainsRune(projectID, 0) {
		return "", fmt.Errorf("%w: %q", ErrBadProject, projectID)
	}
	root := filepath.Join(s.workspace, projectID)
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", err
	}
	return validate.Canonical(root)
}

// target is a resolved path inside one project.
type target struct {
	root string
	abs  string
	rel  string
}

func (s *LocalStore) resolve(projectID, p string) (target, error) {
	root, err := s.Root(projectID)
	if err != nil {
		return target{}, err
	}
	if err := validate.CheckPath(p); err != nil {
		return target{}, fmt.Errorf("%w: %v", ErrOutsideRoot, err)
	}
	abs, err := validate.Resolve(root, p)
	if err != nil {
		return target{}, err
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil {
		return target{}, fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	t := target{root: root, abs: abs, rel: filepath.ToSlash(rel)}
	if t.rel == "." {
		return t, nil
	}
	m, err := ignore.Load(root)
	if err != nil {
		return target{}, fmt.Errorf("load %s: %w", ignore.FileName, err)
	}
	fi, statErr := os.Stat(abs)
	if m.Match(t.rel, statErr == nil && fi.IsDir()) {
		return target{}, fmt.Errorf("%s: %w", t.rel, ErrIgnored)
	}
	return t, nil
}

func (s *LocalStore) ReadFile(projectID, p string) (string, error) {
	l := s.lock(projectID)
	l.RLock()
	defer l.RUnlock()

	t, err := s.resolve(projectID, p)
	if err != nil {
		return "", err
	}
	fi, err := os.Stat(t.abs)
	if err != nil {
		return "", pathErr(t.rel, err)
	}
	if fi.IsDir() {
		return "", fmt.Errorf("%s: %w", t.rel, ErrIsDir)
	}
	if fi.Size() > MaxFileSize {
		return "", fmt.Errorf("%s: %w (%d bytes)", t.rel, ErrTooLarge, fi.Size())
	}
	b, err := os.ReadFile(t.abs)
	if err != nil {
		return "", pathErr(t.rel, err)
	}
	return string(b), nil
}

func (s *LocalStore) WriteFile(projectID, p, content string) error {
	l := s.lock(projectID)
	l.Lock()
	defer l.Unlock()

	t, err := s.resolve(projectID, p)
	if err != nil {
		return err
	}
	if fi, err := os.Stat(t.abs); err == nil && fi.IsDir() {
		return fmt.Errorf("%s: %w", t.rel, ErrIsDir)
	}
	if err := os.MkdirAll(filepath.Dir(t.abs), 0o755); err != nil {
		return pathErr(t.rel, err)
	}
	if err := os.WriteFile(t.abs, []byte(content), 0o644); err != nil {
		return pathErr(t.rel, err)
	}
	s.log.Debug("file written", zap.String("project", projectID), zap.String("path", t.rel), zap.Int("bytes", len(content)))
	return nil
}

func (s *LocalStore) CreateFile(projectID, p, content string) error {
	l := s.lock(projectID)
	l.Lock()
	defer l.Unlock()

	t, err := s.resolve(projectID, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(t.abs), 0o755); err != nil {
		return pathErr(t.rel, err)
	}
	f, err := os.OpenFile(t.abs, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return pathErr(t.rel, err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		return pathErr(t.rel, err)
	}
	s.log.Debug("file created", zap.String("project", projectID), zap.String("path", t.rel))
	return f.Close()
}

func (s *LocalStore) CreateFolder(projectID, p string) error {
	l := s.lock(projectID)
	l.Lock()
	defer l.Unlock()

	t, err := s.resolve(projectID, p)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(t.abs); err == nil {
		return fmt.Errorf("%s: %w", t.rel, ErrExists)
	}
	if err := os.MkdirAll(t.abs, 0o755); err != nil {
		return pathErr(t.rel, err)
	}
	s.log.Debug("folder created", zap.String("project", projectID), zap.String("path", t.rel))
	return nil
}

func (s *LocalStore) Delete(projectID, p string) error {
	l := s.lock(projectID)
	l.Lock()
	defer l.Unlock()

	t, err := s.resolve(projectID, p)
	if err != nil {
		return err
	}
	if t.rel == "." {
		return fmt.Errorf("project root: %w", ErrProtected)
	}
	if _, err := os.Lstat(t.abs); err != nil {
		return pathErr(t.rel, err)
	}
	if err := os.RemoveAll(t.abs); err != nil {
		return pathErr(t.rel, err)
	}
	s.log.Debug("path deleted", zap.String("project", projectID), zap.String("path", t.rel))
	return nil
}

func (s *LocalStore) Rename(projectID, p, newName string) (string, error) {
	l := s.lock(projectID)
	l.Lock()
	defer l.Unlock()

	t, err := s.resolve(projectID, p)
	if err != nil {
		return "", err
	}
	if t.rel == "." {
		return "", fmt.Errorf("project root: %w", ErrProtected)
	}
	if _, err := os.Lstat(t.abs); err != nil {
		return "", pathErr(t.rel, err)
	}
	if newName == "" || strings.ContainsAny(newName, `/\`) || newName == "." || newName == ".." {
		return "", fmt.Errorf("invalid name %q", newName)
	}
	dst, err := s.resolve(projectID, path.Join(path.Dir(t.rel), newName))
	if err != nil {
		return "", err
	}
	if _, err := os.Lstat(dst.abs); err == nil {
		return "", fmt.Errorf("%s: %w", dst.rel, ErrExists)
	}
	if err := os.Rename(t.abs, dst.abs); err != nil {
		return "", pathErr(t.rel, err)
	}
	s.log.Debug("path renamed", zap.String("project", projectID), zap.String("from", t.rel), zap.String("to", dst.rel))
	return dst.rel, nil
}

func (s *LocalStore) FileTree(projectID string) ([]Node, error) {
	l := s.lock(projectID)
	l.RLock()
	defer l.RUnlock()

	root, err := s.Root(projectID)
	if err != nil {
		return nil, err
	}
	m, err := ignore.Load(root)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", ignore.FileName, err)
	}
	return readTree(root, "", m)
}

func readTree(root, rel string, m *ignore.Matcher) ([]Node, error) {
	entries, err := os.ReadDir(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	var folders, files []Node
	for _, e := range entries {
		p := path.Join(rel, e.Name())
		// symlinks are listed as files and never followed
		isDir := e.IsDir()
		if m.Match(p, isDir) {
			continue
		}
		if isDir {
			children, err := readTree(root, p, m)
			if err != nil {
				return nil, err
			}
			folders = append(folders, &FolderNode{Name: e.Name(), Path: p, Children: children})
		} else {
			files = append(files, NewFileNode(p))
		}
	}
	byName := func(ns []Node) {
		sort.Slice(ns, func(i, j int) bool { return ns[i].NodeName() < ns[j].NodeName() })
	}
	byName(folders)
	byName(files)
	return append(folders, files...), nil
}

// pathErr maps filesystem errors onto the package sentinels.
func pathErr(rel string, err error) error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%s: %w", rel, ErrNotFound)
	case errors.Is(err, fs.ErrExist):
		return fmt.Errorf("%s: %w", rel, ErrExists)
	case errors.Is(err, syscall.ENOTDIR):
		return fmt.Errorf("%s: %w", rel, ErrNotDir)
	}
	return fmt.Errorf("%s: %w", rel, err)
}
