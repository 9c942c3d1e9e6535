package analysis

import (
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Severity ranks a security finding.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every severity from least to most severe.
var Severities = []string{"low", "medium", "high", "critical"}

// Rank orders severities; unknown values rank below low.
func (s Severity) Rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// SecurityIssue is one pattern hit.
type SecurityIssue struct {
	Type           string   `json:"type"`
	Severity       Severity `json:"severity"`
	File           string   `json:"file"`
	Line           int      `json:"line"`
	Description    string   `json:"description"`
	Recommendation string   `json:"recommendation"`
}

type securityRule struct {
	re             *regexp.Regexp
	typ            string
	severity       Severity
	description    string
	recommendation string
}

var securityRules = []securityRule{
	{
		re:             regexp.MustCompile(`\beval\s*\(`),
		typ:            "Code Injection",
		severity:       SeverityCritical,
		description:    "Use of eval() executes arbitrary code",
		recommendation: "Parse data explicitly (e.g. JSON.parse) instead of evaluating it",
	},
	{
		re:             regexp.MustCompile(`\.innerHTML\s*=[^=]`),
		typ:            "Cross-Site Scripting",
		severity:       SeverityHigh,
		description:    "Assignment to innerHTML can inject markup",
		recommendation: "Use textContent or sanitize the HTML first",
	},
	{
		re:             regexp.MustCompile(`\bdocument\.write(?:ln)?\s*\(`),
		typ:            "Cross-Site Scripting",
		severity:       SeverityMedium,
		description:    "document.write() writes unescaped markup",
		recommendation: "Build DOM nodes with createElement and textContent",
	},
	{
		re:             regexp.MustCompile(`(?i)\b(?:password|passwd|secret|api_?key|access_?token|auth_?token)\s*[:=]\s*['"][^'"]{4,}['"]`),
		typ:            "Hardcoded Secret",
		severity:       SeverityHigh,
		description:    "Credential assigned from a string literal",
		recommendation: "Load secrets from the environment or a secret store",
	},
	{
		re:             regexp.MustCompile(`\bnew\s+Function\s*\(`),
		typ:            "Code Injection",
		severity:       SeverityHigh,
		description:    "Dynamic Function construction compiles arbitrary code",
		recommendation: "Avoid constructing functions from strings",
	},
	{
		re:             regexp.MustCompile(`(?i)['"]\s*(?:select\b[^'"]*\bfrom|insert\s+into|update\b[^'"]*\bset|delete\s+from)\b[^'"]*['"]\s*\+`),
		typ:            "SQL Injection",
		severity:       SeverityCritical,
		description:    "SQL statement built by string concatenation",
		recommendation: "Use parameterized queries or prepared statements",
	},
	{
		re:             regexp.MustCompile(`\b(?:exec|execSync)\s*\(`),
		typ:            "Command Injection",
		severity:       SeverityHigh,
		description:    "Raw process execution with a command string",
		recommendation: "Use execFile/spawn with an argument list and validate input",
	},
}

var securityExts = map[string]bool{
	".js": true, ".ts": true, ".jsx": true, ".tsx": true, ".py": true,
	".java": true, ".kt": true, ".php": true, ".rb": true,
}

// ScansForSecurity reports whether the security scan covers path.
func ScansForSecurity(path string) bool {
	return securityExts[strings.ToLower(filepath.Ext(path))]
}

// ScanSecurity tests every rule against every line of text. A line that
// matches several rules yields several issues.
func ScanSecurity(file, text string) []SecurityIssue {
	var issues []SecurityIssue
	for n, line := range strings.Split(text, "\n") {
		for _, r := range securityRules {
			if r.re.MatchString(line) {
				issues = append(issues, SecurityIssue{
					Type:           r.typ,
					Severity:       r.severity,
					File:           file,
					Line:           n + 1,
					Description:    r.description,
					Recommendation: r.recommendation,
				})
			}
		}
	}
	return issues
}

// FilterSeverity keeps issues at or above min and sorts them from most to
// least severe. Issues of equal severity keep their scan order.
func FilterSeverity(issues []SecurityIssue, min Severity) []SecurityIssue {
	out := make([]SecurityIssue, 0, len(issues))
	for _, is := range issues {
		if is.Severity.Rank() >= min.Rank() {
			out = append(out, is)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Severity.Rank() > out[j].Severity.Rank()
	})
	return out
}

// FormatSecurityReport renders issues grouped by severity.
func FormatSecurityReport(issues []SecurityIssue, filesScanned int) string {
	if len(issues) == 0 {
		return fmt.Sprintf("No security issues found (%d files scanned)", filesScanned)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d security issue(s) in %d files:\n", len(issues), filesScanned)
	for _, is := range issues {
		fmt.Fprintf(&sb, "\n[%s] %s at %s:%d\n  %s\n  Fix: %s\n",
			strings.ToUpper(string(is.Severity)), is.Type, is.File, is.Line, is.Description, is.Recommendation)
	}
	return sb.String()
}
