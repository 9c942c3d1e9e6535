// Package analysis holds stateless text scanners: syntax balance checks,
// security and secret patterns, import and construct extraction, and the
// dead-code heuristic. Nothing in this package touches the filesystem.
package analysis

import (
	"path/filepath"
	"strings"
)

var languageByExt = map[string]string{
	".js":   "javascript",
	".jsx":  "javascript",
	".mjs":  "javascript",
	".cjs":  "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".css":  "css",
	".scss": "css",
	".less": "css",
	".html": "html",
	".htm":  "html",
	".json": "json",
	".py":   "python",
	".kt":   "kotlin",
	".kts":  "kotlin",
	".java": "java",
	".go":   "go",
	".php":  "php",
	".rb":   "ruby",
	".md":   "markdown",
	".yml":  "yaml",
	".yaml": "yaml",
	".xml":  "xml",
	".sh":   "shell",
}

// LanguageFor guesses a language name from a file path. Unknown
// extensions yield "".
func LanguageFor(path string) string {
	return languageByExt[strings.ToLower(filepath.Ext(path))]
}

// IsSource reports whether path has an extension of a language the
// scanners understand.
func IsSource(path string) bool {
	switch LanguageFor(path) {
	case "javascript", "typescript", "python", "kotlin", "java", "go", "php", "ruby":
		return true
	}
	return false
}

// braceFamily reports whether a language delimits blocks with braces and
// uses // and /* */ comments.
func braceFamily(lang string) bool {
	switch lang {
	case "javascript", "typescript", "css", "kotlin", "java", "go", "php":
		return true
	}
	return false
}
