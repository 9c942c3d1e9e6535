package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/simonyos/agentcore/internal/analysis"
)

func (e *Executor) checkSyntax(_ context.Context, c *call) (string, error) {
	p := c.str("path")
	content, err := e.store.ReadFile(c.projectID, p)
	if err != nil {
		return "", err
	}
	lang := strings.ToLower(c.strOr("language", analysis.LanguageFor(p)))
	if !analysis.HasSyntaxChecker(lang) {
		return "", errorf(KindValidation, "No syntax checker for %s", langName(lang))
	}
	issues := analysis.CheckSyntax(content, lang)
	if len(issues) == 0 {
		return fmt.Sprintf("No syntax errors found in %s (%s)", p, lang), nil
	}
	return formatIssues(fmt.Sprintf("Found %d syntax issue(s) in %s:", len(issues), p), issues), nil
}

func (e *Executor) validateJSON(_ context.Context, c *call) (string, error) {
	content, source := c.str("content"), "content"
	if c.has("path") {
		source = c.str("path")
		var err error
		if content, err = e.store.ReadFile(c.projectID, source); err != nil {
			return "", err
		}
	}
	issues := analysis.ValidateJSON(content)
	if len(issues) == 0 {
		return fmt.Sprintf("Valid JSON (%s)", source), nil
	}
	return formatIssues(fmt.Sprintf("Invalid JSON (%s):", source), issues), nil
}

func formatIssues(header string, issues []analysis.Issue) string {
	var sb strings.Builder
	sb.WriteString(header + "\n")
	for _, is := range issues {
		sb.WriteString("- " + is.String() + "\n")
	}
	return sb.String()
}

func (e *Executor) findDeadCode(_ context.Context, c *call) (string, error) {
	files, err := e.files(c, c.str("path"), analysis.IsSource)
	if err != nil {
		return "", err
	}
	sources, _ := e.readAll(c, files)
	items := analysis.FindDeadCode(sources)
	if len(items) == 0 {
		return fmt.Sprintf("No unused exports found (%d files scanned)", len(sources)), nil
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d potentially unused export(s) in %d files:\n", len(items), len(sources))
	for _, it := range items {
		fmt.Fprintf(&sb, "- %s (%s:%d)\n", it.Name, it.File, it.Line)
	}
	sb.WriteString("\nNote: this is a heuristic. Names used through reflection or dynamic lookups are reported as unused.\n")
	return sb.String(), nil
}

func (e *Executor) analyzeImports(_ context.Context, c *call) (string, error) {
	rel := relPath(c.str("path"))
	files, err := e.files(c, rel, nil)
	if err != nil {
		return "", err
	}
	single := len(files) == 1 && files[0].Path == rel
	sources, _ := e.readAll(c, files)

	var reports []string
	for _, f := range sources {
		lang := analysis.LanguageFor(f.Path)
		if !single && !analysis.IsSource(f.Path) {
			continue
		}
		imports := analysis.ExtractImports(f.Content, lang)
		if !single && len(imports) == 0 {
			continue
		}
		reports = append(reports, analysis.FormatImports(f.Path, imports))
	}
	if len(reports) == 0 {
		return fmt.Sprintf("No imports found under %s", displayPath(rel)), nil
	}
	return strings.Join(reports, "\n"), nil
}

func (e *Executor) generateDocs(_ context.Context, c *call) (string, error) {
	rel := relPath(c.str("path"))
	files, err := e.files(c, rel, analysis.IsSource)
	if err != nil {
		return "", err
	}
	sources, _ := e.readAll(c, files)

	var sb strings.Builder
	fmt.Fprintf(&sb, "# Documentation: %s\n", displayPath(rel))
	total := 0
	for _, f := range sources {
		constructs := analysis.ExtractConstructs(f.Content, analysis.LanguageFor(f.Path))
		if len(constructs) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "\n## %s\n\n", f.Path)
		for _, k := range constructs {
			fmt.Fprintf(&sb, "- `%s` (%s, lines %d-%d)", k.Name, k.Kind, k.StartLine, k.EndLine)
			if sig := signature(k.Body); sig != "" {
				fmt.Fprintf(&sb, ": `%s`", sig)
			}
			sb.WriteString("\n")
			total++
		}
	}
	if total == 0 {
		sb.WriteString("\nNo documentable constructs found.\n")
	}

	out := c.str("output_path")
	if out == "" {
		return sb.String(), nil
	}
	if err := e.store.WriteFile(c.projectID, out, sb.String()); err != nil {
		return "", err
	}
	return fmt.Sprintf("Documentation for %d construct(s) in %d file(s) written to %s", total, len(sources), out), nil
}

// signature is the first line of a construct without its opening brace.
func signature(body string) string {
	line, _, _ := strings.Cut(body, "\n")
	line = strings.TrimSpace(line)
	line = strings.TrimSpace(strings.TrimSuffix(line, "{"))
	return clip(line, 120)
}

func displayPath(rel string) string {
	if rel == "" {
		return "."
	}
	return rel
}
