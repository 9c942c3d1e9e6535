// Package ignore matches project paths against .agentignore patterns.
// The syntax is a subset of .gitignore: globs, "**", a leading "/" to
// anchor at the project root, a trailing "/" for directories and "!" to
// re-include.
package ignore

import (
	"bufio"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// FileName is the per-project ignore file.
const FileName = ".agentignore"

// Defaults are always blocked, before any project pattern. A project can
// re-include one with a "!" line.
var Defaults = []string{
	".git/",
	".svn/",
	".hg/",
	"node_modules/",
	"__pycache__/",
	".env",
	".env.*",
	"*.pem",
	"*.key",
	"*_rsa",
	"*_ed25519",
	"*.p12",
	"credentials.json",
	"service-account*.json",
}

// Matcher decides whether a slash-separated path relative to a project
// root is blocked. The zero value blocks nothing.
type Matcher struct {
	rules []rule
}

type rule struct {
	glob     string
	negate   bool
	dirOnly  bool
	anchored bool
}

// New builds a matcher from the defaults followed by patterns.
func New(patterns ...string) *Matcher {
	m := &Matcher{}
	for _, p := range Defaults {
		m.Add(p)
	}
	for _, p := range patterns {
		m.Add(p)
	}
	return m
}

// Load reads root/.agentignore on top of the defaults. A missing file is
// not an error.
func Load(root string) (*Matcher, error) {
	m := New()
	f, err := os.Open(filepath.Join(root, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if err := m.Read(f); err != nil {
		return nil, err
	}
	return m, nil
}

// Read adds one pattern per line, skipping blanks and "#" comments.
func (m *Matcher) Read(r io.Reader) error {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		m.Add(sc.Text())
	}
	return sc.Err()
}

// Add appends one pattern. Later patterns override earlier ones.
func (m *Matcher) Add(line string) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return
	}
	r := rule{glob: line}
	if strings.HasPrefix(r.glob, "!") {
		r.negate = true
		r.glob = r.glob[1:]
	}
	if strings.HasSuffix(r.glob, "/") {
		r.dirOnly = true
		r.glob = strings.TrimSuffix(r.glob, "/")
	}
	if strings.HasPrefix(r.glob, "/") {
		r.anchored = true
		r.glob = strings.TrimPrefix(r.glob, "/")
	} else if strings.Contains(r.glob, "/") && !strings.HasPrefix(r.glob, "**") {
		r.anchored = true
	}
	if r.glob != "" {
		m.rules = append(m.rules, r)
	}
}

// Match reports whether rel is blocked. isDir says whether rel itself is a
// directory. A path inside a blocked directory is blocked too.
func (m *Matcher) Match(rel string, isDir bool) bool {
	if m == nil {
		return false
	}
	rel = strings.Trim(path.Clean(filepath.ToSlash(rel)), "/")
	if rel == "" || rel == "." {
		return false
	}
	parts := strings.Split(rel, "/")
	blocked := false
	for i := range parts {
		sub := strings.Join(parts[:i+1], "/")
		dir := isDir || i < len(parts)-1
		for _, r := range m.rules {
			if r.matches(sub, dir) {
				blocked = !r.negate
			}
		}
		if blocked && i < len(parts)-1 {
			// nothing below a blocked directory can be re-included
			return true
		}
	}
	return blocked
}

func (r rule) matches(rel string, isDir bool) bool {
	if r.dirOnly && !isDir {
		return false
	}
	if r.anchored {
		return globMatch(r.glob, rel)
	}
	return globMatch(r.glob, path.Base(rel))
}

// globMatch extends path.Match with "**" spanning any number of
// directories.
func globMatch(glob, name string) bool {
	if !strings.Contains(glob, "**") {
		ok, _ := path.Match(glob, name)
		return ok
	}
	head, tail, _ := strings.Cut(glob, "**")
	head = strings.TrimSuffix(head, "/")
	tail = strings.TrimPrefix(tail, "/")
	segs := strings.Split(name, "/")
	start := 0
	if head != "" {
		n := strings.Count(head, "/") + 1
		if len(segs) < n {
			return false
		}
		if ok, _ := path.Match(head, strings.Join(segs[:n], "/")); !ok {
			return false
		}
		start = n
	}
	if tail == "" {
		return true
	}
	for i := start; i <= len(segs); i++ {
		if globMatch(tail, strings.Join(segs[i:], "/")) {
			return true
		}
	}
	return false
}
