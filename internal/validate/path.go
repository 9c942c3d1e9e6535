package validate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// MaxPathLength bounds every path argument.
	MaxPathLength = 500
	// MaxParentSegments bounds the number of ".." segments in a path.
	MaxParentSegments = 10
)

var (
	// ErrOutsideRoot is returned when a path resolves outside the sandbox.
	ErrOutsideRoot = errors.New("path escapes project root")
)

// CheckPath applies the path rules that do not need a filesystem: length,
// NUL bytes and the ".." budget.
func CheckPath(p string) error {
	if len(p) > MaxPathLength {
		return fmt.Errorf("path exceeds %d characters", MaxPathLength)
	}
	if strings.ContainsRune(p, 0) {
		return errors.New("path contains a NUL byte")
	}
	parents := 0
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		if seg == ".." {
			parents++
		}
	}
	if parents > MaxParentSegments {
		return fmt.Errorf("path contains more than %d '..' segments", MaxParentSegments)
	}
	return nil
}

// Resolve joins p onto root the way the operating system would walk it,
// following symlinks component by component, and returns the resulting
// absolute path. An absolute p is treated as relative to root. The result
// is ErrOutsideRoot when it is not root itself or below it.
func Resolve(root, p string) (string, error) {
	croot, err := Canonical(root)
	if err != nil {
		return "", err
	}
	resolved := walk(croot, p)
	if !Within(croot, resolved) {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, p)
	}
	return resolved, nil
}

// Canonical returns the absolute, symlink-free form of p. Components that
// do not exist yet are appended lexically to the longest existing prefix.
func Canonical(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	existing := abs
	var rest []string
	for {
		if resolved, err := filepath.EvalSymlinks(existing); err == nil {
			return filepath.Join(append([]string{resolved}, rest...)...), nil
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
}

// walk applies each component of p to dir. ".." moves to the parent of
// the already-resolved directory so that "link/.." lands where the
// operating system would put it.
func walk(dir, p string) string {
	cur := dir
	for _, seg := range strings.Split(filepath.ToSlash(p), "/") {
		switch seg {
		case "", ".":
			continue
		case "..":
			cur = filepath.Dir(cur)
			continue
		}
		next := filepath.Join(cur, seg)
		if fi, err := os.Lstat(next); err == nil && fi.Mode()&os.ModeSymlink != 0 {
			if target, err := filepath.EvalSymlinks(next); err == nil {
				next = target
			} else if link, err := os.Readlink(next); err == nil {
				// dangling link: judge it by where it points
				if !filepath.IsAbs(link) {
					link = filepath.Join(cur, link)
				}
				next = filepath.Clean(link)
			}
		}
		cur = next
	}
	return cur
}

// Within reports whether p is root or lies below it. Both must be clean
// absolute paths.
func Within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
