package tools

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/simonyos/agentcore/internal/analysis"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/validate"
)

// change is one planned edit: a rename when NewName is set, otherwise a
// rewrite of the file's content.
type change struct {
	Path    string
	NewName string
	Content string
	Count   int
}

// plan is the full change set of a batch tool. The same plan is reported
// by a dry run and carried out by a real one.
type plan struct {
	Changes []change
	Skipped []string
}

func (e *Executor) batchRename(ctx context.Context, c *call) (string, error) {
	p, err := e.planBatchRename(c)
	if err != nil {
		return "", err
	}
	return e.carryOut(ctx, c, p)
}

func (e *Executor) batchModify(ctx context.Context, c *call) (string, error) {
	p, err := e.planBatchModify(c)
	if err != nil {
		return "", err
	}
	return e.carryOut(ctx, c, p)
}

func (e *Executor) refactorCode(ctx context.Context, c *call) (string, error) {
	var (
		p   plan
		err error
	)
	switch op := c.str("operation"); op {
	case "rename_symbol":
		p, err = e.planRenameSymbol(c)
	case "sort_imports":
		p, err = e.planSortImports(c)
	default:
		return "", errorf(KindValidation, "Unknown refactor operation '%s'", op)
	}
	if err != nil {
		return "", err
	}
	return e.carryOut(ctx, c, p)
}

func (e *Executor) planBatchRename(c *call) (plan, error) {
	re, err := regexp.Compile(c.str("pattern"))
	if err != nil {
		return plan{}, errorf(KindValidation, "Invalid pattern: %v", err)
	}
	files, err := e.files(c, c.str("path"), nil)
	if err != nil {
		return plan{}, err
	}
	nodes, err := e.store.FileTree(c.projectID)
	if err != nil {
		return plan{}, err
	}
	taken := map[string]bool{}
	_ = project.Walk(nodes, func(n project.Node) error {
		taken[n.NodePath()] = true
		return nil
	})

	var p plan
	replacement := c.str("replacement")
	for _, f := range files {
		base := path.Base(f.Path)
		if !re.MatchString(base) {
			continue
		}
		name := re.ReplaceAllString(base, replacement)
		if name == base {
			continue
		}
		if name == "" || name == "." || name == ".." || strings.ContainsAny(name, `/\`) {
			p.Skipped = append(p.Skipped, fmt.Sprintf("%s: invalid new name %q", f.Path, name))
			continue
		}
		target := path.Join(path.Dir(f.Path), name)
		if taken[target] {
			p.Skipped = append(p.Skipped, fmt.Sprintf("%s: %s already exists", f.Path, target))
			continue
		}
		taken[target] = true
		p.Changes = append(p.Changes, change{Path: f.Path, NewName: name})
	}
	return p, nil
}

func (e *Executor) planBatchModify(c *call) (plan, error) {
	r, err := newReplacer(c.str("search"), c.str("replace"), c.flag("use_regex"), true)
	if err != nil {
		return plan{}, err
	}
	globs := validate.SplitPatterns(c.str("file_pattern"))
	files, err := e.files(c, c.str("path"), func(p string) bool {
		return !isBinaryFile(p) && matchesAny(globs, p)
	})
	if err != nil {
		return plan{}, err
	}
	sources, _ := e.readAll(c, files)
	var p plan
	for _, f := range sources {
		updated, n := r.apply(f.Content)
		if n > 0 && updated != f.Content {
			p.Changes = append(p.Changes, change{Path: f.Path, Content: updated, Count: n})
		}
	}
	return p, nil
}

// refactorFiles returns the files a refactoring covers: the named file, or
// every source file below the named folder.
func (e *Executor) refactorFiles(c *call) ([]analysis.SourceFile, error) {
	rel := relPath(c.str("path"))
	files, err := e.files(c, rel, nil)
	if err != nil {
		return nil, err
	}
	if len(files) != 1 || files[0].Path != rel {
		kept := files[:0]
		for _, f := range files {
			if analysis.IsSource(f.Path) {
				kept = append(kept, f)
			}
		}
		files = kept
	}
	sources, _ := e.readAll(c, files)
	return sources, nil
}

func (e *Executor) planRenameSymbol(c *call) (plan, error) {
	oldName, newName := c.str("old_name"), c.str("new_name")
	if oldName == "" || newName == "" {
		return plan{}, errorf(KindValidation, "rename_symbol requires old_name and new_name")
	}
	sources, err := e.refactorFiles(c)
	if err != nil {
		return plan{}, err
	}
	var p plan
	for _, f := range sources {
		updated, n := replaceIdentifier(f.Content, oldName, newName)
		if n > 0 {
			p.Changes = append(p.Changes, change{Path: f.Path, Content: updated, Count: n})
		}
	}
	return p, nil
}

func (e *Executor) planSortImports(c *call) (plan, error) {
	sources, err := e.refactorFiles(c)
	if err != nil {
		return plan{}, err
	}
	var p plan
	for _, f := range sources {
		lang := analysis.LanguageFor(f.Path)
		if importLine[lang] == nil {
			p.Skipped = append(p.Skipped, fmt.Sprintf("%s: import sorting not supported for %s", f.Path, langName(lang)))
			continue
		}
		if updated, n := sortImports(f.Content, lang); n > 0 {
			p.Changes = append(p.Changes, change{Path: f.Path, Content: updated, Count: n})
		}
	}
	return p, nil
}

// carryOut reports the plan on a dry run and applies it otherwise. A
// failed step does not stop the remaining ones.
func (e *Executor) carryOut(_ context.Context, c *call, p plan) (string, error) {
	dry := c.flag("dry_run")
	if len(p.Changes) == 0 {
		out := "No changes needed"
		if len(p.Skipped) > 0 {
			out += "\n" + formatSkipped(p.Skipped)
		}
		return out, nil
	}

	var failed []string
	var firstErr error
	done := p.Changes
	if !dry {
		done = nil
		for _, ch := range p.Changes {
			var err error
			if ch.NewName != "" {
				_, err = e.store.Rename(c.projectID, ch.Path, ch.NewName)
			} else {
				err = e.store.WriteFile(c.projectID, ch.Path, ch.Content)
			}
			if err != nil {
				failed = append(failed, fmt.Sprintf("%s: %v", ch.Path, err))
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			done = append(done, ch)
		}
	}

	var sb strings.Builder
	verb := "Changed"
	if dry {
		verb = "Would change"
	}
	fmt.Fprintf(&sb, "%s %d file(s):\n", verb, len(done))
	for _, ch := range done {
		if ch.NewName != "" {
			fmt.Fprintf(&sb, "  %s -> %s\n", ch.Path, ch.NewName)
		} else {
			fmt.Fprintf(&sb, "  %s (%d change(s))\n", ch.Path, ch.Count)
		}
	}
	if len(p.Skipped) > 0 {
		sb.WriteString(formatSkipped(p.Skipped))
	}
	if len(failed) > 0 {
		sb.WriteString("Failed:\n  " + strings.Join(failed, "\n  ") + "\n")
		kind := Classify(firstErr)
		return sb.String(), errorf(kind, "%d of %d change(s) failed: %s", len(failed), len(p.Changes), failed[0])
	}
	return sb.String(), nil
}

func formatSkipped(skipped []string) string {
	return "Skipped:\n  " + strings.Join(skipped, "\n  ") + "\n"
}

func langName(lang string) string {
	if lang == "" {
		return "this file type"
	}
	return lang
}

func isIdentByte(b byte) bool {
	return b == '_' || b == '$' || b >= '0' && b <= '9' || b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z'
}

// replaceIdentifier replaces whole-identifier occurrences of oldName.
// Occurrences inside strings and comments are replaced too.
func replaceIdentifier(text, oldName, newName string) (string, int) {
	var sb strings.Builder
	n, last := 0, 0
	for i := 0; i+len(oldName) <= len(text); {
		j := strings.Index(text[i:], oldName)
		if j < 0 {
			break
		}
		start, end := i+j, i+j+len(oldName)
		before := start > 0 && isIdentByte(text[start-1])
		after := end < len(text) && isIdentByte(text[end])
		if before || after {
			i = start + 1
			continue
		}
		sb.WriteString(text[last:start])
		sb.WriteString(newName)
		last, i = end, end
		n++
	}
	if n == 0 {
		return text, 0
	}
	sb.WriteString(text[last:])
	return sb.String(), n
}

var importLine = map[string]*regexp.Regexp{
	"javascript": regexp.MustCompile(`^import\s[^{}]*['"][^'"]+['"];?\s*$|^import\s*\{[^}]*\}\s*from\s*['"][^'"]+['"];?\s*$`),
	"typescript": regexp.MustCompile(`^import\s[^{}]*['"][^'"]+['"];?\s*$|^import\s*(type\s*)?\{[^}]*\}\s*from\s*['"][^'"]+['"];?\s*$`),
	"python":     regexp.MustCompile(`^(import\s+[\w.]+(\s+as\s+\w+)?(\s*,\s*[\w.]+(\s+as\s+\w+)?)*|from\s+\S+\s+import\s+[^(\\]+)\s*$`),
	"kotlin":     regexp.MustCompile(`^import\s+[\w.*]+(\s+as\s+\w+)?\s*$`),
	"java":       regexp.MustCompile(`^import\s+(static\s+)?[\w.*]+;\s*$`),
}

// sortImports sorts the first contiguous block of single-line import
// statements. It returns the new text and the number of lines that moved.
func sortImports(text, lang string) (string, int) {
	re := importLine[lang]
	lines := strings.Split(text, "\n")
	start := -1
	for i, l := range lines {
		if re.MatchString(l) {
			start = i
			break
		}
	}
	if start < 0 {
		return text, 0
	}
	end := start
	for end < len(lines) && re.MatchString(lines[end]) {
		end++
	}
	block := append([]string(nil), lines[start:end]...)
	sort.SliceStable(block, func(i, j int) bool {
		return strings.TrimSpace(block[i]) < strings.TrimSpace(block[j])
	})
	moved := 0
	for i, l := range block {
		if lines[start+i] != l {
			moved++
		}
	}
	if moved == 0 {
		return text, 0
	}
	copy(lines[start:end], block)
	return strings.Join(lines, "\n"), moved
}
