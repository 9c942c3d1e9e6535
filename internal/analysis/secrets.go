package analysis

import (
	"fmt"
	"path"
	"regexp"
	"strings"
)

// SecretFinding is a secret-shaped string found in a file. Match is
// redacted.
type SecretFinding struct {
	Type  string `json:"type"`
	File  string `json:"file"`
	Line  int    `json:"line"`
	Match string `json:"match"`
}

// SecretPattern is a named secret shape.
type SecretPattern struct {
	Name string
	Re   *regexp.Regexp
}

var secretPatterns = []SecretPattern{
	{"API Key", regexp.MustCompile(`(?i)\b(?:api[_-]?key|apikey)\s*[:=]\s*['"]([A-Za-z0-9_\-]{20,})['"]`)},
	{"AWS Access Key", regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`)},
	{"Private Key", regexp.MustCompile(`-----BEGIN (?:RSA |EC |DSA |OPENSSH |PGP )?PRIVATE KEY-----`)},
	{"GitHub Token", regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`)},
	{"Generic Secret", regexp.MustCompile(`(?i)\b(?:secret|password|passwd|pwd)\s*[:=]\s*['"]([^'"\s]{8,})['"]`)},
	{"JWT", regexp.MustCompile(`\beyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`)},
	{"Slack Token", regexp.MustCompile(`\bxox[abprs]-[A-Za-z0-9-]{10,}`)},
	{"Bearer Token", regexp.MustCompile(`(?i)\bbearer\s+[A-Za-z0-9_\-.=]{20,}`)},
}

// CustomSecretPatterns compiles caller-supplied expressions. Each pattern
// is reported under the name "Custom Pattern".
func CustomSecretPatterns(exprs []string) ([]SecretPattern, error) {
	var out []SecretPattern
	for _, e := range exprs {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		re, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern %q: %w", e, err)
		}
		out = append(out, SecretPattern{Name: "Custom Pattern", Re: re})
	}
	return out, nil
}

// SkipForSecrets reports whether the secret scan ignores a slash-separated
// project path: lock files, minified bundles, and anything under a
// dot-directory or node_modules.
func SkipForSecrets(p string) bool {
	base := path.Base(p)
	if strings.HasSuffix(base, ".lock") || strings.HasSuffix(base, ".min.js") {
		return true
	}
	dir := path.Dir(p)
	if dir == "." {
		return false
	}
	for _, seg := range strings.Split(dir, "/") {
		if strings.HasPrefix(seg, ".") && seg != "." && seg != ".." || seg == "node_modules" {
			return true
		}
	}
	return false
}

// ScanSecrets runs the built-in patterns followed by extra against each
// line. A line yields at most one finding per pattern name.
func ScanSecrets(file, text string, extra []SecretPattern) []SecretFinding {
	patterns := append(append([]SecretPattern(nil), secretPatterns...), extra...)
	var findings []SecretFinding
	for n, line := range strings.Split(text, "\n") {
		seen := map[string]bool{}
		for _, p := range patterns {
			if seen[p.Name] {
				continue
			}
			m := p.Re.FindString(line)
			if m == "" {
				continue
			}
			seen[p.Name] = true
			findings = append(findings, SecretFinding{Type: p.Name, File: file, Line: n + 1, Match: Redact(m)})
		}
	}
	return findings
}

// Redact keeps the first and last four characters of s.
func Redact(s string) string {
	r := []rune(s)
	if len(r) <= 12 {
		return "****"
	}
	return string(r[:4]) + "****" + string(r[len(r)-4:])
}

// FormatSecretReport renders findings one per line.
func FormatSecretReport(findings []SecretFinding, filesScanned int) string {
	if len(findings) == 0 {
		return fmt.Sprintf("No secrets found (%d files scanned)", filesScanned)
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d potential secret(s) in %d files:\n", len(findings), filesScanned)
	for _, f := range findings {
		fmt.Fprintf(&sb, "- %s at %s:%d (%s)\n", f.Type, f.File, f.Line, f.Match)
	}
	return sb.String()
}
