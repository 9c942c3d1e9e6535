package tools

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/simonyos/agentcore/internal/analysis"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/validate"
)

const (
	maxSearchMatches = 100
	maxLineDisplay   = 200
)

func (e *Executor) readFile(_ context.Context, c *call) (string, error) {
	return e.store.ReadFile(c.projectID, c.str("path"))
}

func (e *Executor) writeFile(_ context.Context, c *call) (string, error) {
	p, content := c.str("path"), c.str("content")
	if err := e.store.WriteFile(c.projectID, p, content); err != nil {
		return "", err
	}
	return fmt.Sprintf("Wrote %d bytes to %s", len(content), p), nil
}

func (e *Executor) createFile(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	if err := e.store.CreateFile(c.projectID, p, c.str("content")); err != nil {
		if errors.Is(err, project.ErrExists) {
			return "", errorf(KindValidation, "File already exists: %s", p)
		}
		return "", err
	}
	return "Created file: " + p, nil
}

func (e *Executor) createFolder(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	if err := e.store.CreateFolder(c.projectID, p); err != nil {
		if errors.Is(err, project.ErrExists) {
			return "", errorf(KindValidation, "Folder already exists: %s", p)
		}
		return "", err
	}
	return "Created folder: " + p, nil
}

func (e *Executor) deleteFile(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	if e.confirm != nil && !e.confirm("Delete "+p) {
		return "", errorf(KindPolicy, "Deletion of %s declined by user", p)
	}
	if err := e.store.Delete(c.projectID, p); err != nil {
		return "", err
	}
	return "Deleted: " + p, nil
}

func (e *Executor) renameFile(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	dst, err := e.store.Rename(c.projectID, p, c.str("new_name"))
	if err != nil {
		if errors.Is(err, project.ErrExists) {
			return "", errorf(KindValidation, "Cannot rename %s: %v", p, err)
		}
		return "", err
	}
	return fmt.Sprintf("Renamed %s to %s", p, dst), nil
}

func (e *Executor) listFiles(_ context.Context, c *call) (string, error) {
	nodes, err := e.store.FileTree(c.projectID)
	if err != nil {
		return "", err
	}
	header := "."
	if rel := relPath(c.str("path")); rel != "" {
		switch n := project.Find(nodes, rel).(type) {
		case *project.FolderNode:
			nodes, header = n.Children, n.Path
		case *project.FileNode:
			return n.Path, nil
		case nil:
			return "", errorf(KindNotFound, "Path not found: %s", rel)
		default:
			panic(fmt.Sprintf("tools: unknown node %T", n))
		}
	}
	if len(nodes) == 0 {
		return header + "/\n(empty)", nil
	}
	files, folders := 0, 0
	_ = project.Walk(nodes, func(n project.Node) error {
		switch n.(type) {
		case *project.FileNode:
			files++
		case *project.FolderNode:
			folders++
		default:
			panic(fmt.Sprintf("tools: unknown node %T", n))
		}
		return nil
	})
	return fmt.Sprintf("%s/\n%s\n\n%d files, %d folders", header, project.Render(nodes), files, folders), nil
}

func (e *Executor) searchFiles(_ context.Context, c *call) (string, error) {
	query := c.str("query")
	pattern := query
	if !c.flag("use_regex") {
		pattern = regexp.QuoteMeta(query)
	}
	if !c.flag("case_sensitive") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", errorf(KindValidation, "Invalid regular expression: %v", err)
	}
	globs := validate.SplitPatterns(c.str("file_pattern"))

	files, err := e.files(c, c.str("path"), func(p string) bool {
		return !isBinaryFile(p) && matchesAny(globs, p)
	})
	if err != nil {
		return "", err
	}
	sources, _ := e.readAll(c, files)

	var sb strings.Builder
	matches, matchedFiles := 0, 0
	for _, f := range sources {
		hit := false
		for i, line := range strings.Split(f.Content, "\n") {
			if !re.MatchString(line) {
				continue
			}
			matches++
			hit = true
			if matches <= maxSearchMatches {
				fmt.Fprintf(&sb, "%s:%d: %s\n", f.Path, i+1, clip(strings.TrimSpace(line), maxLineDisplay))
			}
		}
		if hit {
			matchedFiles++
		}
	}
	if matches == 0 {
		return fmt.Sprintf("No matches found for '%s' (%d files searched)", query, len(sources)), nil
	}
	if matches > maxSearchMatches {
		fmt.Fprintf(&sb, "... and %d more matches\n", matches-maxSearchMatches)
	}
	return fmt.Sprintf("Found %d match(es) in %d file(s):\n\n%s", matches, matchedFiles, sb.String()), nil
}

func (e *Executor) replaceInFile(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	r, err := newReplacer(c.str("search"), c.str("replace"), c.flag("use_regex"), c.flag("replace_all"))
	if err != nil {
		return "", err
	}
	content, err := e.store.ReadFile(c.projectID, p)
	if err != nil {
		return "", err
	}
	updated, n := r.apply(content)
	if n == 0 {
		return "", errorf(KindNotFound, "Search text not found in %s", p)
	}
	if updated != content {
		if err := e.store.WriteFile(c.projectID, p, updated); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("Replaced %d occurrence(s) in %s", n, p), nil
}

// replacer substitutes literal text or regular expression matches.
type replacer struct {
	re      *regexp.Regexp
	repl    string
	literal bool
	all     bool
}

func newReplacer(search, repl string, useRegex, all bool) (*replacer, error) {
	if search == "" {
		return nil, errorf(KindValidation, "Search text must not be empty")
	}
	pattern := search
	if !useRegex {
		pattern = regexp.QuoteMeta(search)
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errorf(KindValidation, "Invalid regular expression: %v", err)
	}
	return &replacer{re: re, repl: repl, literal: !useRegex, all: all}, nil
}

// apply returns text with matches replaced and the number of replacements.
func (r *replacer) apply(text string) (string, int) {
	n := -1
	if !r.all {
		n = 1
	}
	locs := r.re.FindAllStringSubmatchIndex(text, n)
	if len(locs) == 0 {
		return text, 0
	}
	var out []byte
	last := 0
	for _, loc := range locs {
		out = append(out, text[last:loc[0]]...)
		if r.literal {
			out = append(out, r.repl...)
		} else {
			out = r.re.ExpandString(out, r.repl, text, loc)
		}
		last = loc[1]
	}
	out = append(out, text[last:]...)
	return string(out), len(locs)
}

// files lists the files at or below dir that keep accepts. A dir that
// names nothing in the tree is an error.
func (e *Executor) files(c *call, dir string, keep func(p string) bool) ([]*project.FileNode, error) {
	nodes, err := e.store.FileTree(c.projectID)
	if err != nil {
		return nil, err
	}
	rel := relPath(dir)
	if rel != "" && project.Find(nodes, rel) == nil {
		return nil, errorf(KindNotFound, "Path not found: %s", rel)
	}
	var out []*project.FileNode
	for _, f := range project.Under(nodes, rel) {
		if keep == nil || keep(f.Path) {
			out = append(out, f)
		}
	}
	return out, nil
}

// readAll reads files through the store, skipping ones that cannot be
// read or look binary. It returns how many were skipped.
func (e *Executor) readAll(c *call, files []*project.FileNode) ([]analysis.SourceFile, int) {
	out := make([]analysis.SourceFile, 0, len(files))
	skipped := 0
	for _, f := range files {
		content, err := e.store.ReadFile(c.projectID, f.Path)
		if err != nil || looksBinary(content) {
			skipped++
			continue
		}
		out = append(out, analysis.SourceFile{Path: f.Path, Content: content})
	}
	return out, skipped
}

// relPath turns a tool path argument into a clean slash path relative to
// the project root; "" means the root itself. A leading "/" names the root,
// as it does for the store.
func relPath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	p = path.Clean(filepath.ToSlash(p))
	p = strings.TrimPrefix(p, "./")
	if p == "." || p == "/" {
		return ""
	}
	return strings.TrimPrefix(p, "/")
}

// matchesAny reports whether the file name or the full path of p matches
// one of globs. No globs matches everything.
func matchesAny(globs []string, p string) bool {
	if len(globs) == 0 {
		return true
	}
	base := path.Base(p)
	for _, g := range globs {
		if ok, _ := path.Match(g, base); ok {
			return true
		}
		if ok, _ := path.Match(g, p); ok {
			return true
		}
	}
	return false
}

func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func looksBinary(content string) bool {
	head := content
	if len(head) > 8000 {
		head = head[:8000]
	}
	return strings.IndexByte(head, 0) >= 0
}

var binaryExts = map[string]bool{
	".exe": true, ".dll": true, ".so": true, ".dylib": true, ".bin": true,
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true, ".ico": true, ".webp": true,
	".pdf": true, ".doc": true, ".docx": true, ".xls": true, ".xlsx": true,
	".zip": true, ".tar": true, ".gz": true, ".rar": true, ".7z": true, ".jar": true,
	".mp3": true, ".mp4": true, ".avi": true, ".mov": true, ".wav": true,
	".ttf": true, ".otf": true, ".woff": true, ".woff2": true,
	".pyc": true, ".class": true, ".o": true, ".a": true,
}

// isBinaryFile checks if a file is likely binary based on extension
func isBinaryFile(name string) bool {
	return binaryExts[strings.ToLower(path.Ext(name))]
}
