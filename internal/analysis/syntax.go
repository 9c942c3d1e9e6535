package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Issue is a syntax problem at a 1-based line.
type Issue struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (i Issue) String() string {
	if i.Line > 0 {
		return fmt.Sprintf("Line %d: %s", i.Line, i.Message)
	}
	return i.Message
}

// CheckSyntax dispatches to the checker for the language. Languages
// without a checker return nil.
func CheckSyntax(text, lang string) []Issue {
	switch {
	case lang == "html" || lang == "xml":
		return CheckHTML(text)
	case lang == "json":
		return ValidateJSON(text)
	case lang == "python":
		return checkBalance(text, "#", false)
	case braceFamily(lang):
		return CheckBraces(text)
	}
	return nil
}

// HasSyntaxChecker reports whether CheckSyntax understands lang.
func HasSyntaxChecker(lang string) bool {
	switch lang {
	case "html", "xml", "json", "python":
		return true
	}
	return braceFamily(lang)
}

var closerFor = map[byte]byte{'{': '}', '(': ')', '[': ']'}
var openerFor = map[byte]byte{'}': '{', ')': '(', ']': '['}

// CheckBraces verifies that braces, parentheses and brackets balance in
// C-family source. String literals and comments are ignored. A closer
// that drives its count negative is reported at that line and the count
// resets to zero, so one stray closer yields exactly one issue.
func CheckBraces(text string) []Issue {
	return checkBalance(text, "//", true)
}

func checkBalance(text, lineComment string, blockComments bool) []Issue {
	var issues []Issue
	counts := map[byte]int{'{': 0, '(': 0, '[': 0}
	inBlock := false
	inTemplate := false
	lines := strings.Split(text, "\n")

	for n, line := range lines {
		code := stripLine(line, lineComment, blockComments, &inBlock, &inTemplate)
		for i := 0; i < len(code); i++ {
			c := code[i]
			if _, ok := closerFor[c]; ok {
				counts[c]++
				continue
			}
			if open, ok := openerFor[c]; ok {
				counts[open]--
				if counts[open] < 0 {
					issues = append(issues, Issue{Line: n + 1, Message: fmt.Sprintf("Unexpected '%c'", c)})
					counts[open] = 0
				}
			}
		}
	}

	last := len(lines)
	for _, open := range []byte{'{', '(', '['} {
		if c := counts[open]; c > 0 {
			issues = append(issues, Issue{Line: last, Message: fmt.Sprintf("Missing %d closing '%c'", c, closerFor[open])})
		}
	}
	return issues
}

// stripLine removes string literals and comments from one line. Block
// comments and template literals may continue across lines.
func stripLine(line, lineComment string, blockComments bool, inBlock, inTemplate *bool) string {
	var sb strings.Builder
	for i := 0; i < len(line); i++ {
		c := line[i]
		if *inBlock {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				*inBlock = false
				i++
			}
			continue
		}
		if *inTemplate {
			if c == '\\' {
				i++
			} else if c == '`' {
				*inTemplate = false
			}
			continue
		}
		if strings.HasPrefix(line[i:], lineComment) {
			break
		}
		if blockComments && c == '/' && i+1 < len(line) && line[i+1] == '*' {
			*inBlock = true
			i++
			continue
		}
		switch c {
		case '"', '\'':
			i = skipString(line, i)
		case '`':
			*inTemplate = true
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

// skipString returns the index of the closing quote of the literal that
// starts at i, or the end of the line for an unterminated literal.
func skipString(line string, i int) int {
	q := line[i]
	for j := i + 1; j < len(line); j++ {
		switch line[j] {
		case '\\':
			j++
		case q:
			return j
		}
	}
	return len(line)
}

var voidElements = map[string]bool{
	"br": true, "hr": true, "img": true, "input": true, "meta": true, "link": true,
	"area": true, "base": true, "col": true, "embed": true, "source": true,
	"track": true, "wbr": true,
}

type openTag struct {
	name string
	line int
}

// CheckHTML verifies tag nesting. Void elements and explicit "/>" never
// open a scope. Comments, doctype declarations and the bodies of script
// and style elements are skipped.
func CheckHTML(text string) []Issue {
	var issues []Issue
	var stack []openTag
	line := 1
	i := 0

	advance := func(to int) {
		line += strings.Count(text[i:to], "\n")
		i = to
	}

	for i < len(text) {
		lt := strings.IndexByte(text[i:], '<')
		if lt < 0 {
			break
		}
		advance(i + lt)

		switch {
		case strings.HasPrefix(text[i:], "<!--"):
			end := strings.Index(text[i+4:], "-->")
			if end < 0 {
				issues = append(issues, Issue{Line: line, Message: "Unclosed comment"})
				return issues
			}
			advance(i + 4 + end + 3)
			continue
		case strings.HasPrefix(text[i:], "<!"), strings.HasPrefix(text[i:], "<?"):
			gt := strings.IndexByte(text[i:], '>')
			if gt < 0 {
				return issues
			}
			advance(i + gt + 1)
			continue
		}

		closing := strings.HasPrefix(text[i:], "</")
		nameStart := i + 1
		if closing {
			nameStart++
		}
		nameEnd := nameStart
		for nameEnd < len(text) && isTagNameByte(text[nameEnd], nameEnd == nameStart) {
			nameEnd++
		}
		if nameEnd == nameStart {
			// a bare '<' in text
			advance(i + 1)
			continue
		}
		name := strings.ToLower(text[nameStart:nameEnd])
		tagLine := line

		gt := tagEnd(text, nameEnd)
		if gt < 0 {
			issues = append(issues, Issue{Line: tagLine, Message: fmt.Sprintf("Unterminated tag <%s", name)})
			return issues
		}
		selfClosing := gt > 0 && text[gt-1] == '/'
		advance(gt + 1)

		if closing {
			if len(stack) == 0 {
				issues = append(issues, Issue{Line: tagLine, Message: fmt.Sprintf("Unexpected closing tag </%s>", name)})
				continue
			}
			top := stack[len(stack)-1]
			if top.name != name {
				issues = append(issues, Issue{Line: tagLine, Message: fmt.Sprintf(
					"Mismatched closing tag </%s>, expected </%s> (opened at line %d)", name, top.name, top.line)})
			}
			stack = stack[:len(stack)-1]
			continue
		}
		if selfClosing || voidElements[name] {
			continue
		}
		if name == "script" || name == "style" {
			end := strings.Index(strings.ToLower(text[i:]), "</"+name)
			if end < 0 {
				issues = append(issues, Issue{Line: tagLine, Message: fmt.Sprintf("Unclosed tag <%s> opened at line %d", name, tagLine)})
				return issues
			}
			advance(i + end)
		}
		stack = append(stack, openTag{name: name, line: tagLine})
	}

	for _, t := range stack {
		issues = append(issues, Issue{Line: t.line, Message: fmt.Sprintf("Unclosed tag <%s> opened at line %d", t.name, t.line)})
	}
	return issues
}

func isTagNameByte(c byte, first bool) bool {
	if c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' {
		return true
	}
	return !first && (c >= '0' && c <= '9' || c == '-' || c == ':')
}

// tagEnd finds the '>' closing a tag, skipping quoted attribute values.
func tagEnd(text string, from int) int {
	var quote byte
	for j := from; j < len(text); j++ {
		c := text[j]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return j
		}
	}
	return -1
}

// ValidateJSON parses text as JSON and reports at most one issue carrying
// the parser's message.
func ValidateJSON(text string) []Issue {
	var v any
	err := json.Unmarshal([]byte(text), &v)
	if err == nil {
		return nil
	}
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return []Issue{{Line: lineAt(text, int(se.Offset)), Message: se.Error()}}
	}
	return []Issue{{Message: err.Error()}}
}

func lineAt(text string, offset int) int {
	if offset > len(text) {
		offset = len(text)
	}
	return strings.Count(text[:offset], "\n") + 1
}
