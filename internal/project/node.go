package project

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

// Node is one entry of a project file tree: a *FileNode or a *FolderNode.
// The set is closed; every traversal switches over both.
type Node interface {
	NodeName() string
	NodePath() string
	sealed()
}

// FileNode is a regular file.
type FileNode struct {
	Name      string `json:"name"`
	Path      string `json:"path"`
	Extension string `json:"extension"`
}

// FolderNode is a directory with its children, folders first and then by
// name.
type FolderNode struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	Children []Node `json:"children"`
}

func (f *FileNode) NodeName() string   { return f.Name }
func (f *FileNode) NodePath() string   { return f.Path }
func (*FileNode) sealed()              {}
func (f *FolderNode) NodeName() string { return f.Name }
func (f *FolderNode) NodePath() string { return f.Path }
func (*FolderNode) sealed()            {}

// NewFileNode derives name and extension from a slash-separated path.
func NewFileNode(p string) *FileNode {
	name := path.Base(p)
	return &FileNode{Name: name, Path: p, Extension: strings.TrimPrefix(path.Ext(name), ".")}
}

var (
	// SkipFolder returned from a Walk callback skips the folder's children.
	SkipFolder = errors.New("skip this folder")
	// SkipAll returned from a Walk callback ends the walk without error.
	SkipAll = errors.New("skip everything")
)

// Walk visits nodes depth-first in order.
func Walk(nodes []Node, fn func(Node) error) error {
	err := walk(nodes, fn)
	if err == SkipAll {
		return nil
	}
	return err
}

func walk(nodes []Node, fn func(Node) error) error {
	for _, n := range nodes {
		err := fn(n)
		switch n := n.(type) {
		case *FileNode:
			if err != nil && err != SkipFolder {
				return err
			}
		case *FolderNode:
			if err == SkipFolder {
				continue
			}
			if err != nil {
				return err
			}
			if err := walk(n.Children, fn); err != nil {
				return err
			}
		default:
			panic(fmt.Sprintf("project: unknown node %T", n))
		}
	}
	return nil
}

// Files lists every file under nodes in tree order.
func Files(nodes []Node) []*FileNode {
	var out []*FileNode
	_ = Walk(nodes, func(n Node) error {
		if f, ok := n.(*FileNode); ok {
			out = append(out, f)
		}
		return nil
	})
	return out
}

// Find returns the node at a slash-separated path, or nil.
func Find(nodes []Node, p string) Node {
	p = strings.Trim(path.Clean("/"+p), "/")
	var found Node
	_ = Walk(nodes, func(n Node) error {
		if n.NodePath() == p {
			found = n
			return SkipAll
		}
		if _, ok := n.(*FolderNode); ok && !strings.HasPrefix(p, n.NodePath()+"/") {
			return SkipFolder
		}
		return nil
	})
	return found
}

// Under returns the files at or below prefix. An empty prefix or "." means
// the whole tree.
func Under(nodes []Node, prefix string) []*FileNode {
	prefix = strings.Trim(path.Clean("/"+prefix), "/")
	if prefix == "" {
		return Files(nodes)
	}
	switch n := Find(nodes, prefix).(type) {
	case *FileNode:
		return []*FileNode{n}
	case *FolderNode:
		return Files(n.Children)
	case nil:
		return nil
	default:
		panic(fmt.Sprintf("project: unknown node %T", n))
	}
}

// Render draws nodes as an indented tree, folders marked with a trailing
// slash.
func Render(nodes []Node) string {
	var sb strings.Builder
	render(&sb, nodes, "")
	return strings.TrimRight(sb.String(), "\n")
}

func render(sb *strings.Builder, nodes []Node, indent string) {
	for i, n := range nodes {
		branch, next := "├── ", "│   "
		if i == len(nodes)-1 {
			branch, next = "└── ", "    "
		}
		switch n := n.(type) {
		case *FileNode:
			sb.WriteString(indent + branch + n.Name + "\n")
		case *FolderNode:
			sb.WriteString(indent + branch + n.Name + "/\n")
			render(sb, n.Children, indent+next)
		default:
			panic(fmt.Sprintf("project: unknown node %T", n))
		}
	}
}
