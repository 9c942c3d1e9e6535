package analysis

import (
	"regexp"
	"sort"
	"strings"
)

// SourceFile is a path and its content.
type SourceFile struct {
	Path    string
	Content string
}

// DeadCodeItem is an exported name that looks unused.
type DeadCodeItem struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

var (
	jsExportRe = regexp.MustCompile(`^\s*export\s+(?:default\s+)?(?:declare\s+)?(?:abstract\s+)?(?:async\s+)?(?:function\*?|class|const|let|var|interface|type|enum)\s+([A-Za-z_$][\w$]*)`)
	pyExportRe = regexp.MustCompile(`^(?:async\s+)?(?:def|class)\s+([A-Za-z]\w*)`)
	ktExportRe = regexp.MustCompile(`^(?:(?:public|internal|inline|suspend|data|sealed|open|abstract|enum|const)\s+)*(?:fun|class|object|interface|val|var)\s+(?:<[^>]*>\s*)?(?:[\w.]+\.)?([A-Za-z]\w*)`)
	identRe    = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
)

type exported struct {
	name string
	file string
	line int
}

// FindDeadCode flags exported names whose identifier occurrences across
// all files total at most one, i.e. the declaration itself.
//
// This is a heuristic. Names reached through reflection, dynamic property
// access, string-based lookups or code outside files will be reported as
// unused. Occurrences inside comments and strings count as uses.
func FindDeadCode(files []SourceFile) []DeadCodeItem {
	var exports []exported
	counts := map[string]int{}

	for _, f := range files {
		lang := LanguageFor(f.Path)
		for n, line := range strings.Split(f.Content, "\n") {
			for _, name := range exportedNames(line, lang) {
				exports = append(exports, exported{name: name, file: f.Path, line: n + 1})
			}
		}
		for _, tok := range identRe.FindAllString(f.Content, -1) {
			counts[tok]++
		}
	}

	var items []DeadCodeItem
	for _, e := range exports {
		if counts[e.name] <= 1 {
			items = append(items, DeadCodeItem{Name: e.name, File: e.file, Line: e.line})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].File != items[j].File {
			return items[i].File < items[j].File
		}
		return items[i].Line < items[j].Line
	})
	return items
}

func exportedNames(line, lang string) []string {
	switch lang {
	case "javascript", "typescript":
		if m := jsExportRe.FindStringSubmatch(line); m != nil {
			return []string{m[1]}
		}
	case "python":
		if m := pyExportRe.FindStringSubmatch(line); m != nil {
			return []string{m[1]}
		}
	case "kotlin":
		if m := ktExportRe.FindStringSubmatch(line); m != nil && m[1] != "main" {
			return []string{m[1]}
		}
	}
	return nil
}
