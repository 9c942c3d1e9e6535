package analysis

import (
	"regexp"
	"strings"
)

// Construct is a named top-level declaration and its source text.
type Construct struct {
	Name      string
	Kind      string // function, class, object, type
	StartLine int
	EndLine   int
	Body      string
}

type constructRule struct {
	re   *regexp.Regexp
	kind string
}

var constructRules = map[string][]constructRule{
	"javascript": jsConstructRules,
	"typescript": jsConstructRules,
	"python": {
		{regexp.MustCompile(`^(?:async\s+)?def\s+(\w+)`), "function"},
		{regexp.MustCompile(`^class\s+(\w+)`), "class"},
	},
	"kotlin": {
		{regexp.MustCompile(`^\s*(?:(?:public|private|internal|protected|inline|suspend|override|open|abstract|tailrec|operator|infix)\s+)*fun\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?(\w+)`), "function"},
		{regexp.MustCompile(`^\s*(?:(?:public|private|internal|protected|open|abstract|data|sealed|enum|inner|annotation)\s+)*(?:class|interface)\s+(\w+)`), "class"},
		{regexp.MustCompile(`^\s*(?:(?:public|private|internal|protected|data|companion)\s+)*object\s+(\w+)`), "object"},
	},
	"java": {
		{regexp.MustCompile(`^\s*(?:(?:public|private|protected|abstract|final|static|sealed)\s+)*(?:class|interface|enum|record)\s+(\w+)`), "class"},
	},
	"go": {
		{regexp.MustCompile(`^func\s+(?:\([^)]*\)\s*)?(\w+)`), "function"},
		{regexp.MustCompile(`^type\s+(\w+)`), "type"},
	},
}

var jsConstructRules = []constructRule{
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:async\s+)?function\s*\*?\s*([A-Za-z_$][\w$]*)`), "function"},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:default\s+)?(?:abstract\s+)?class\s+([A-Za-z_$][\w$]*)`), "class"},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*(?::[^=]+)?=\s*(?:async\s+)?(?:function\b|\([^)]*\)\s*(?::[^=]+)?=>|[A-Za-z_$][\w$]*\s*=>)`), "function"},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*\{`), "object"},
	{regexp.MustCompile(`^\s*(?:export\s+)?(?:declare\s+)?(?:interface|type|enum)\s+([A-Za-z_$][\w$]*)`), "type"},
}

// ExtractConstructs finds top-level declarations. In brace languages a
// declaration counts only at brace depth zero and its body runs to the
// brace that closes it; in Python it must start at column zero and its
// body is the indented block that follows.
func ExtractConstructs(text, lang string) []Construct {
	rules, ok := constructRules[lang]
	if !ok {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if lang == "python" {
		return pythonConstructs(lines, rules)
	}

	var out []Construct
	depth := 0
	inBlock, inTemplate := false, false
	for i := 0; i < len(lines); i++ {
		if depth == 0 {
			if name, kind, ok := matchConstruct(lines[i], rules); ok {
				end := braceBlockEnd(lines, i)
				out = append(out, Construct{
					Name:      name,
					Kind:      kind,
					StartLine: i + 1,
					EndLine:   end + 1,
					Body:      strings.Join(lines[i:end+1], "\n"),
				})
				i = end
				continue
			}
		}
		code := stripLine(lines[i], "//", true, &inBlock, &inTemplate)
		depth += strings.Count(code, "{") - strings.Count(code, "}")
		if depth < 0 {
			depth = 0
		}
	}
	return out
}

func matchConstruct(line string, rules []constructRule) (string, string, bool) {
	for _, r := range rules {
		if m := r.re.FindStringSubmatch(line); m != nil {
			return m[1], r.kind, true
		}
	}
	return "", "", false
}

// braceBlockEnd returns the index of the line where the block opened at
// or after start closes. A declaration whose first line ends without
// opening a brace is a single line.
func braceBlockEnd(lines []string, start int) int {
	depth := 0
	opened := false
	inBlock, inTemplate := false, false
	for i := start; i < len(lines); i++ {
		code := stripLine(lines[i], "//", true, &inBlock, &inTemplate)
		for _, c := range code {
			switch c {
			case '{':
				depth++
				opened = true
			case '}':
				depth--
			}
		}
		if opened && depth <= 0 {
			return i
		}
		if !opened && i == start && !continuesDeclaration(code) {
			return i
		}
	}
	return len(lines) - 1
}

// continuesDeclaration reports whether a declaration line without a brace
// expects its body on a following line.
func continuesDeclaration(code string) bool {
	t := strings.TrimSpace(code)
	return strings.HasSuffix(t, ")") || strings.HasSuffix(t, "=>") || strings.HasSuffix(t, ",") || strings.HasSuffix(t, "(")
}

func pythonConstructs(lines []string, rules []constructRule) []Construct {
	var out []Construct
	for i := 0; i < len(lines); i++ {
		name, kind, ok := matchConstruct(lines[i], rules)
		if !ok {
			continue
		}
		end := i
		for j := i + 1; j < len(lines); j++ {
			l := lines[j]
			if strings.TrimSpace(l) == "" {
				continue
			}
			if l[0] != ' ' && l[0] != '\t' {
				break
			}
			end = j
		}
		out = append(out, Construct{
			Name:      name,
			Kind:      kind,
			StartLine: i + 1,
			EndLine:   end + 1,
			Body:      strings.Join(lines[i:end+1], "\n"),
		})
		i = end
	}
	return out
}
