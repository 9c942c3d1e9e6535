package tools

import (
	"context"
	"fmt"
	"path"

	"github.com/simonyos/agentcore/internal/analysis"
	"github.com/simonyos/agentcore/internal/diff"
)

func diffOptions(c *call, oldName, newName string) (diff.Format, diff.Options) {
	return diff.Format(c.strOr("format", string(diff.FormatUnified))), diff.Options{
		Context: c.intOr("context_lines", diff.DefaultContext),
		Width:   c.intOr("width", diff.DefaultWidth),
		OldName: oldName,
		NewName: newName,
	}
}

func (e *Executor) diffFiles(_ context.Context, c *call) (string, error) {
	a, b := c.str("path_a"), c.str("path_b")
	original, err := e.store.ReadFile(c.projectID, a)
	if err != nil {
		return "", err
	}
	modified, err := e.store.ReadFile(c.projectID, b)
	if err != nil {
		return "", err
	}
	format, opts := diffOptions(c, a, b)
	return diff.Render(original, modified, format, opts)
}

func (e *Executor) diffContent(_ context.Context, c *call) (string, error) {
	format, opts := diffOptions(c, "original", "modified")
	return diff.Render(c.str("original"), c.str("modified"), format, opts)
}

func (e *Executor) applyPatch(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	original, err := e.store.ReadFile(c.projectID, p)
	if err != nil {
		return "", err
	}
	patched, err := diff.ApplyPatch(original, c.str("patch"))
	if err != nil {
		return "", fmt.Errorf("patch not applied to %s: %w", p, err)
	}
	st, err := diff.ComputeStats(diff.SplitLines(original), diff.SplitLines(patched))
	if err != nil {
		return "", err
	}
	if c.flag("dry_run") {
		return fmt.Sprintf("Patch applies cleanly to %s (+%d -%d)", p, st.Additions, st.Deletions), nil
	}
	if err := e.store.WriteFile(c.projectID, p, patched); err != nil {
		return "", err
	}
	return fmt.Sprintf("Patched %s (+%d -%d)", p, st.Additions, st.Deletions), nil
}

func (e *Executor) semanticDiff(_ context.Context, c *call) (string, error) {
	a, b := c.str("path_a"), c.str("path_b")
	lang := analysis.LanguageFor(a)
	if lang == "" {
		lang = analysis.LanguageFor(b)
	}
	if lang == "" {
		return "", errorf(KindValidation, "Semantic diff does not support %s files", path.Ext(a))
	}
	original, err := e.store.ReadFile(c.projectID, a)
	if err != nil {
		return "", err
	}
	modified, err := e.store.ReadFile(c.projectID, b)
	if err != nil {
		return "", err
	}
	changes, err := diff.Semantic(original, modified, lang)
	if err != nil {
		return "", err
	}
	return diff.RenderSemantic(changes), nil
}
