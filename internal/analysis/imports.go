package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// Import is a module reference found at a 1-based line.
type Import struct {
	Line   int    `json:"line"`
	Module string `json:"module"`
}

var (
	jsImportRe      = regexp.MustCompile(`^\s*import\s+(?:type\s+)?(?:[\w*{}\s,$]+\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequireRe     = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	jsDynamicRe     = regexp.MustCompile(`\bimport\(\s*['"]([^'"]+)['"]\s*\)`)
	pyImportRe      = regexp.MustCompile(`^\s*import\s+([\w.]+(?:\s+as\s+\w+)?(?:\s*,\s*[\w.]+(?:\s+as\s+\w+)?)*)`)
	pyFromRe        = regexp.MustCompile(`^\s*from\s+(\.*[\w.]*)\s+import\b`)
	jvmImportRe     = regexp.MustCompile(`^\s*import\s+(?:static\s+)?([\w.]*\w(?:\.\*)?)`)
	goImportRe      = regexp.MustCompile(`^\s*import\s+(?:[\w.]+\s+)?"([^"]+)"`)
	goImportBlockRe = regexp.MustCompile(`^\s*(?:[\w.]+\s+)?"([^"]+)"`)
)

// ExtractImports lists the modules a source file references, in line
// order.
func ExtractImports(text, lang string) []Import {
	var out []Import
	inGoBlock := false
	for n, line := range strings.Split(text, "\n") {
		ln := n + 1
		switch lang {
		case "javascript", "typescript":
			if m := jsImportRe.FindStringSubmatch(line); m != nil {
				out = append(out, Import{ln, m[1]})
				continue
			}
			for _, m := range jsRequireRe.FindAllStringSubmatch(line, -1) {
				out = append(out, Import{ln, m[1]})
			}
			for _, m := range jsDynamicRe.FindAllStringSubmatch(line, -1) {
				out = append(out, Import{ln, m[1]})
			}
		case "python":
			if m := pyFromRe.FindStringSubmatch(line); m != nil {
				out = append(out, Import{ln, m[1]})
			} else if m := pyImportRe.FindStringSubmatch(line); m != nil {
				for _, part := range strings.Split(m[1], ",") {
					out = append(out, Import{ln, strings.Fields(part)[0]})
				}
			}
		case "kotlin", "java":
			if m := jvmImportRe.FindStringSubmatch(line); m != nil {
				out = append(out, Import{ln, m[1]})
			}
		case "go":
			trimmed := strings.TrimSpace(line)
			switch {
			case inGoBlock && trimmed == ")":
				inGoBlock = false
			case inGoBlock:
				if m := goImportBlockRe.FindStringSubmatch(line); m != nil {
					out = append(out, Import{ln, m[1]})
				}
			case strings.HasPrefix(trimmed, "import ("):
				inGoBlock = true
			default:
				if m := goImportRe.FindStringSubmatch(line); m != nil {
					out = append(out, Import{ln, m[1]})
				}
			}
		}
	}
	return out
}

// FormatImports renders imports grouped into external and relative
// modules.
func FormatImports(file string, imports []Import) string {
	if len(imports) == 0 {
		return fmt.Sprintf("No imports found in %s", file)
	}
	var local, external []Import
	for _, im := range imports {
		if strings.HasPrefix(im.Module, ".") {
			local = append(local, im)
		} else {
			external = append(external, im)
		}
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Imports in %s (%d):\n", file, len(imports))
	if len(external) > 0 {
		sb.WriteString("\nExternal:\n")
		for _, im := range external {
			fmt.Fprintf(&sb, "  line %d: %s\n", im.Line, im.Module)
		}
	}
	if len(local) > 0 {
		sb.WriteString("\nRelative:\n")
		for _, im := range local {
			fmt.Fprintf(&sb, "  line %d: %s\n", im.Line, im.Module)
		}
	}
	return sb.String()
}
