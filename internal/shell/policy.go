// Package shell decides which commands the agent may run and runs them
// with a bounded timeout and output size.
package shell

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultAllow is the set of command heads permitted when no allow-list is
// configured.
var DefaultAllow = []string{
	"ls", "cat", "head", "tail", "wc", "grep", "rg", "find", "echo", "printf", "pwd", "which",
	"tree", "sort", "uniq", "diff", "sed", "awk", "cut", "tr", "xargs", "date", "sleep", "true", "false", "test",
	"mkdir", "touch", "cp", "mv", "rm",
	"git",
	"node", "npm", "npx", "yarn", "pnpm", "bun", "deno", "tsc", "eslint", "prettier", "jest", "vitest",
	"python", "python3", "pip", "pip3", "pytest", "ruff", "black",
	"go", "gofmt", "cargo", "rustc", "make",
	"java", "javac", "kotlinc", "gradle", "./gradlew", "mvn",
}

// denyPatterns catch destructive commands regardless of the allow-list.
var denyPatterns = []struct {
	re     *regexp.Regexp
	reason string
}{
	{regexp.MustCompile(`\brm\s+(-\S*\s+)*-\S*[rR]\S*\s+(-\S*\s+)*(/|~/?|\$HOME/?)\*?(\s|$)`), "recursive delete of a root or home directory"},
	{regexp.MustCompile(`\brm\s+(-\S*\s+)*-\S*[rR]\S*\s+(-\S*\s+)*\*(\s|$)`), "recursive delete of everything in the working directory"},
	{regexp.MustCompile(`--no-preserve-root`), "recursive delete of the root directory"},
	{regexp.MustCompile(`:\(\)\s*\{\s*:\s*\|\s*:\s*&\s*\}\s*;`), "fork bomb"},
	{regexp.MustCompile(`\b(shutdown|reboot|poweroff|halt)\b|\binit\s+[06]\b`), "system power control"},
	{regexp.MustCompile(`\bmkfs(\.\w+)?\b|\bwipefs\b|\bsgdisk\b.*--zap-all`), "filesystem formatting"},
	{regexp.MustCompile(`\bdd\s+.*\bof=/dev/`), "raw write to a device"},
	{regexp.MustCompile(`>\s*/dev/(sd|nvme|vd|hd|mmcblk|disk)`), "raw write to a device"},
	{regexp.MustCompile(`\b(chmod|chown)\s+(-\S+\s+)*-R\S*\s+\S+\s+/(\s|$)`), "recursive permission change on root"},
	{regexp.MustCompile(`\b(curl|wget)\b[^|]*\|\s*(sudo\s+)?(ba|z)?sh\b`), "piping a download into a shell"},
	{regexp.MustCompile(`(^|[;&|(]\s*)(sudo|su|doas)(\s|$)`), "privilege escalation"},
}

var (
	segmentSep = regexp.MustCompile(`&&|\|\||[;|&\n]`)
	redirectRe = regexp.MustCompile(`\d*>&\d*-?|&>>?`)
	assignRe   = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=\S*$`)
)

// Decision is the outcome of a policy check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// Policy combines a fixed deny list with an allow-list of command heads.
// Every segment of a pipeline or command list must pass.
type Policy struct {
	allow    map[string]bool
	allowAll bool
}

// NewPolicy builds a policy from allowed command heads. A nil or empty list
// means DefaultAllow; a list containing "*" allows any head that the deny
// list does not catch.
func NewPolicy(allow []string) *Policy {
	if len(allow) == 0 {
		allow = DefaultAllow
	}
	p := &Policy{allow: make(map[string]bool, len(allow))}
	for _, a := range allow {
		a = strings.TrimSpace(a)
		if a == "*" {
			p.allowAll = true
		}
		if a != "" {
			p.allow[a] = true
		}
	}
	return p
}

// Validate decides whether command may run. It never runs anything.
func (p *Policy) Validate(command string) Decision {
	command = strings.TrimSpace(command)
	if command == "" {
		return Decision{Reason: "empty command"}
	}
	for _, d := range denyPatterns {
		if d.re.MatchString(command) {
			return Decision{Reason: "blocked: " + d.reason}
		}
	}
	if p.allowAll {
		return Decision{Allowed: true}
	}
	if strings.Contains(command, "$(") || strings.Contains(command, "`") || strings.Contains(command, "<(") {
		return Decision{Reason: "command substitution is not allowed"}
	}
	for _, seg := range segmentSep.Split(redirectRe.ReplaceAllString(command, " > "), -1) {
		head := commandHead(seg)
		if head == "" {
			continue
		}
		if !p.allow[head] {
			return Decision{Reason: fmt.Sprintf("command '%s' is not in the allow-list", head)}
		}
	}
	return Decision{Allowed: true}
}

// ValidateHead decides whether a program may be started directly.
func (p *Policy) ValidateHead(name string) Decision {
	if name == "" {
		return Decision{Reason: "empty command"}
	}
	if p.allowAll || p.allow[name] {
		return Decision{Allowed: true}
	}
	return Decision{Reason: fmt.Sprintf("command '%s' is not in the allow-list", name)}
}

// Allowed lists the configured heads, or nil when everything is allowed.
func (p *Policy) Allowed() []string {
	if p.allowAll {
		return nil
	}
	out := make([]string, 0, len(p.allow))
	for a := range p.allow {
		out = append(out, a)
	}
	return out
}

// commandHead returns the program of one segment, skipping leading
// environment assignments. A head with a directory part is kept whole so
// that "./ls" never passes as "ls".
func commandHead(seg string) string {
	for _, f := range strings.Fields(seg) {
		if assignRe.MatchString(f) {
			continue
		}
		return strings.Trim(f, `"'()`)
	}
	return ""
}
