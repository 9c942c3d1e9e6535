// Package project is the file store the tools read and write through. A
// project is a directory; every path handed to a Store is relative to it
// and may never resolve outside it.
package project

import (
	"errors"

	"github.com/simonyos/agentcore/internal/validate"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrExists      = errors.New("already exists")
	ErrOutsideRoot = validate.ErrOutsideRoot
	ErrIgnored     = errors.New("blocked by .agentignore")
	ErrProtected   = errors.New("protected path")
	ErrIsDir       = errors.New("is a directory")
	ErrNotDir      = errors.New("not a directory")
	ErrTooLarge    = errors.New("file too large")
	ErrBadProject  = errors.New("invalid project id")
)

// MaxFileSize bounds a single ReadFile.
const MaxFileSize = 10 << 20

// Store serializes access per project. Paths are slash-separated and
// relative to the project root.
type Store interface {
	// Root returns the absolute directory of a project, creating it when
	// missing.
	Root(projectID string) (string, error)
	ReadFile(projectID, path string) (string, error)
	// WriteFile creates the file and its parents when absent.
	WriteFile(projectID, path, content string) error
	// CreateFile fails with ErrExists when something is already there.
	CreateFile(projectID, path, content string) error
	CreateFolder(projectID, path string) error
	Delete(projectID, path string) error
	// Rename gives path a new base name in the same folder and returns the
	// new path.
	Rename(projectID, path, newName string) (string, error)
	// FileTree snapshots the project. Ignored entries are left out.
	FileTree(projectID string) ([]Node, error)
}
