package analysis

import (
	"fmt"
	"regexp"
	"strings"
)

// LargeFileLines is the line count above which a file is flagged.
const LargeFileLines = 500

// PerformanceHint is a pattern-based performance observation.
type PerformanceHint struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

var (
	loopRe       = regexp.MustCompile(`^\s*(?:for|while)\b|\.(?:forEach|map|filter|reduce)\s*\(`)
	awaitRe      = regexp.MustCompile(`\bawait\s`)
	syncIORe     = regexp.MustCompile(`\b(?:readFileSync|writeFileSync|existsSync|readdirSync|execSync)\s*\(`)
	jsonCloneRe  = regexp.MustCompile(`JSON\.parse\(\s*JSON\.stringify\(`)
	domQueryRe   = regexp.MustCompile(`\bdocument\.(?:querySelector(?:All)?|getElementById|getElementsBy\w+)\s*\(`)
	stringConcat = regexp.MustCompile(`\+=\s*['"` + "`" + `]`)
)

// AnalyzePerformance scans one file for common performance smells. Loop
// nesting is tracked by brace depth for brace languages and by
// indentation for Python.
func AnalyzePerformance(file, text, lang string) []PerformanceHint {
	var hints []PerformanceHint
	lines := strings.Split(text, "\n")
	add := func(line int, typ, msg string) {
		hints = append(hints, PerformanceHint{File: file, Line: line, Type: typ, Message: msg})
	}

	// levels at which currently open loops started
	var loops []int
	depth := 0
	inBlock, inTemplate := false, false

	for n, line := range lines {
		ln := n + 1
		var level int
		if lang == "python" {
			if strings.TrimSpace(line) == "" {
				continue
			}
			level = len(line) - len(strings.TrimLeft(line, " \t"))
			for len(loops) > 0 && level <= loops[len(loops)-1] {
				loops = loops[:len(loops)-1]
			}
		} else {
			level = depth
		}

		inLoop := len(loops) > 0
		if loopRe.MatchString(line) {
			if inLoop {
				add(ln, "Nested Loop", "Loop nested inside another loop; consider a map/set lookup")
			}
			loops = append(loops, level)
		} else if inLoop {
			if awaitRe.MatchString(line) {
				add(ln, "Await In Loop", "Sequential await inside a loop; consider Promise.all")
			}
			if domQueryRe.MatchString(line) {
				add(ln, "DOM Query In Loop", "DOM lookup repeated on every iteration; hoist it out of the loop")
			}
			if stringConcat.MatchString(line) {
				add(ln, "String Concatenation In Loop", "Repeated string concatenation; collect parts and join once")
			}
		}
		if syncIORe.MatchString(line) {
			add(ln, "Synchronous I/O", "Blocking file or process call; prefer the async variant")
		}
		if jsonCloneRe.MatchString(line) {
			add(ln, "JSON Deep Clone", "JSON round-trip clone is slow and lossy; use structuredClone")
		}

		if lang != "python" {
			code := stripLine(line, "//", true, &inBlock, &inTemplate)
			depth += strings.Count(code, "{") - strings.Count(code, "}")
			if depth < 0 {
				depth = 0
			}
			for len(loops) > 0 && depth <= loops[len(loops)-1] {
				loops = loops[:len(loops)-1]
			}
		}
	}

	if len(lines) > LargeFileLines {
		add(0, "Large File", fmt.Sprintf("%d lines; consider splitting into modules", len(lines)))
	}
	return hints
}

// FormatPerformanceReport renders hints one per line.
func FormatPerformanceReport(hints []PerformanceHint, filesScanned int) string {
	if len(hints) == 0 {
		return fmt.Sprintf("No performance issues found (%d files scanned)", filesScanned)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d performance hint(s) in %d files:\n", len(hints), filesScanned)
	for _, h := range hints {
		if h.Line > 0 {
			fmt.Fprintf(&sb, "- [%s] %s:%d %s\n", h.Type, h.File, h.Line, h.Message)
		} else {
			fmt.Fprintf(&sb, "- [%s] %s %s\n", h.Type, h.File, h.Message)
		}
	}
	return sb.String()
}
