// Package validate checks tool-call arguments before anything runs. Every
// violation of a call is collected so the caller sees them all at once.
package validate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/simonyos/agentcore/internal/analysis"
	"github.com/simonyos/agentcore/internal/diff"
)

const (
	// MaxContentLength bounds content-bearing arguments.
	MaxContentLength = 1_000_000
	// MaxURLLength bounds URLs passed to web tools.
	MaxURLLength = 2048
	// MaxCommandLength bounds shell commands.
	MaxCommandLength = 10_000
)

// Allowed values of enum-like arguments.
var (
	TodoActions        = []string{"add", "complete", "remove", "list", "clear"}
	RefactorOperations = []string{"rename_symbol", "sort_imports"}
	ScaffoldTypes      = []string{"html", "react", "node", "python", "kotlin"}
	CodeTemplates      = []string{"function", "class", "component", "test", "api_endpoint"}
	BranchActions      = []string{"list", "create", "switch"}
	DiffFormats        = diff.Formats
	Severities         = analysis.Severities
)

// ProtectedPaths may never be deleted.
var ProtectedPaths = []string{"", ".", "/", "..", ".git", "node_modules", ".idea", ".gradle"}

var (
	memoryKeyRe   = regexp.MustCompile(`^[A-Za-z0-9_.-]{1,100}$`)
	identifierRe  = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)
	projectNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	branchCharsRe = regexp.MustCompile(`^[A-Za-z0-9._/-]+$`)
)

var (
	pathKeys    = []string{"path", "path_a", "path_b", "working_dir", "output_path"}
	contentKeys = []string{"content", "value", "patch", "original", "modified", "search", "replace", "replacement", "summary", "question", "message"}
	boolKeys    = []string{"dry_run", "use_regex", "case_sensitive", "replace_all"}
	numberKeys  = []string{"timeout", "context_lines", "width", "count"}
	// required keys that may legitimately be empty strings
	emptyOK = map[string]bool{"content": true, "replace": true, "replacement": true, "value": true}
)

// Result is the outcome of validating one call.
type Result struct {
	IsValid bool
	Errors  []string
}

// Error joins all violations into one message.
func (r Result) Error() string {
	return strings.Join(r.Errors, "; ")
}

type rule struct {
	required []string
	check    func(c *checker)
}

var rules = map[string]rule{
	"read_file":     {required: []string{"path"}},
	"write_file":    {required: []string{"path", "content"}},
	"create_file":   {required: []string{"path"}},
	"create_folder": {required: []string{"path"}},
	"delete_file":   {required: []string{"path"}, check: checkDelete},
	"rename_file":   {required: []string{"path", "new_name"}, check: checkRename},
	"list_files":    {},
	"search_files": {required: []string{"query"}, check: func(c *checker) {
		if c.flag("use_regex") {
			c.regex("query")
		}
	}},
	"replace_in_file": {required: []string{"path", "search", "replace"}, check: func(c *checker) {
		if c.flag("use_regex") {
			c.regex("search")
		}
	}},

	"save_memory":   {required: []string{"key", "value"}, check: checkMemoryKey},
	"recall_memory": {required: []string{"key"}, check: checkMemoryKey},
	"list_memories": {},
	"delete_memory": {required: []string{"key"}, check: checkMemoryKey},
	"update_memory": {required: []string{"key", "value"}, check: checkMemoryKey},
	"manage_todos":  {required: []string{"action"}, check: checkTodo},

	"batch_rename": {required: []string{"pattern", "replacement"}, check: func(c *checker) {
		c.regex("pattern")
	}},
	"batch_modify": {required: []string{"file_pattern", "search", "replace"}, check: func(c *checker) {
		c.glob("file_pattern")
		if c.flag("use_regex") {
			c.regex("search")
		}
	}},
	"refactor_code": {required: []string{"operation", "path"}, check: checkRefactor},

	"check_syntax":    {required: []string{"path"}},
	"validate_json":   {check: checkValidateJSON},
	"find_dead_code":  {},
	"analyze_imports": {required: []string{"path"}},

	"scaffold_project": {required: []string{"type", "name"}, check: func(c *checker) {
		c.enum("type", ScaffoldTypes)
		c.match("name", projectNameRe, "letters, digits, '-' or '_' (max 64)")
	}},
	"generate_docs": {required: []string{"path"}},
	"finish_task":   {required: []string{"summary"}},
	"ask_user":      {required: []string{"question"}},

	"diff_files":    {required: []string{"path_a", "path_b"}, check: checkDiffOptions},
	"diff_content":  {required: []string{"original", "modified"}, check: checkDiffOptions},
	"apply_patch":   {required: []string{"path", "patch"}},
	"semantic_diff": {required: []string{"path_a", "path_b"}},

	"run_command":   {required: []string{"command"}, check: checkCommand},
	"check_command": {required: []string{"command"}, check: checkCommand},
	"web_fetch":     {required: []string{"url"}, check: checkURL},

	"git_status": {},
	"git_diff":   {},
	"git_log": {check: func(c *checker) {
		c.minNumber("count", 1)
	}},
	"git_commit": {required: []string{"message"}},
	"git_branch": {required: []string{"action"}, check: checkBranch},

	"generate_code": {required: []string{"template", "name"}, check: func(c *checker) {
		c.enum("template", CodeTemplates)
		c.match("name", identifierRe, "a valid identifier")
	}},
	"run_tests": {},
	"security_scan": {check: func(c *checker) {
		c.enum("min_severity", Severities)
	}},
	"scan_secrets": {check: func(c *checker) {
		if s, ok := c.str("custom_patterns"); ok {
			for _, p := range SplitPatterns(s) {
				if _, err := regexp.Compile(p); err != nil {
					c.errorf("Invalid custom pattern '%s': %v", p, err)
				}
			}
		}
	}},
	"analyze_performance": {},
}

// Known reports whether the validator has rules for a tool.
func Known(tool string) bool {
	_, ok := rules[tool]
	return ok
}

// RequiredFields lists the parameters a tool cannot run without.
func RequiredFields(tool string) []string {
	return append([]string(nil), rules[tool].required...)
}

// Validate checks args for tool. Unknown tools pass. When sandboxRoot is
// non-empty every path argument must resolve inside it.
func Validate(tool string, args map[string]any, sandboxRoot string) Result {
	r, ok := rules[tool]
	if !ok {
		return Result{IsValid: true}
	}
	c := &checker{args: args, root: sandboxRoot}

	for _, key := range r.required {
		v, present := args[key]
		if !present || v == nil {
			c.errorf("Missing required parameter: %s", key)
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" && !emptyOK[key] {
			c.errorf("Parameter '%s' must not be empty", key)
		}
	}
	for _, key := range pathKeys {
		c.path(key)
	}
	for _, key := range contentKeys {
		c.content(key)
	}
	for _, key := range boolKeys {
		c.boolean(key)
	}
	for _, key := range numberKeys {
		c.number(key)
	}
	if r.check != nil {
		r.check(c)
	}
	return Result{IsValid: len(c.errs) == 0, Errors: c.errs}
}

type checker struct {
	args map[string]any
	root string
	errs []string
}

func (c *checker) errorf(format string, a ...any) {
	c.errs = append(c.errs, fmt.Sprintf(format, a...))
}

// str returns a present, non-empty argument as a string. Numbers and
// booleans are formatted.
func (c *checker) str(key string) (string, bool) {
	s, ok := Stringify(c.args[key])
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (c *checker) path(key string) {
	p, ok := c.str(key)
	if !ok {
		return
	}
	if err := CheckPath(p); err != nil {
		c.errorf("Invalid %s: %v", key, err)
		return
	}
	if c.root == "" {
		return
	}
	if _, err := Resolve(c.root, p); err != nil {
		c.errorf("Invalid %s '%s': path escapes project root", key, p)
	}
}

func (c *checker) content(key string) {
	if s, ok := c.str(key); ok && len(s) > MaxContentLength {
		c.errorf("Parameter '%s' exceeds %d characters", key, MaxContentLength)
	}
}

func (c *checker) boolean(key string) {
	v, present := c.args[key]
	if !present || v == nil {
		return
	}
	if _, ok := Bool(v); !ok {
		c.errorf("Parameter '%s' must be a boolean", key)
	}
}

func (c *checker) number(key string) {
	v, present := c.args[key]
	if !present || v == nil {
		return
	}
	if s, isStr := v.(string); isStr && s == "" {
		return
	}
	if _, ok := Number(v); !ok {
		c.errorf("Parameter '%s' must be a number", key)
	}
}

func (c *checker) minNumber(key string, min float64) {
	if v, present := c.args[key]; present {
		if n, ok := Number(v); ok && n < min {
			c.errorf("Parameter '%s' must be at least %g", key, min)
		}
	}
}

// flag reads a boolean argument, treating anything unparsable as false.
func (c *checker) flag(key string) bool {
	b, _ := Bool(c.args[key])
	return b
}

func (c *checker) enum(key string, allowed []string) {
	s, ok := c.str(key)
	if !ok {
		return
	}
	for _, a := range allowed {
		if s == a {
			return
		}
	}
	c.errorf("Invalid %s '%s'. Must be one of: %s", key, s, strings.Join(allowed, ", "))
}

func (c *checker) regex(key string) {
	if s, ok := c.str(key); ok {
		if _, err := regexp.Compile(s); err != nil {
			c.errorf("Invalid regular expression in '%s': %v", key, err)
		}
	}
}

func (c *checker) glob(key string) {
	if s, ok := c.str(key); ok {
		if _, err := path.Match(s, ""); err != nil {
			c.errorf("Invalid file pattern '%s': %v", s, err)
		}
	}
}

func (c *checker) match(key string, re *regexp.Regexp, want string) {
	if s, ok := c.str(key); ok && !re.MatchString(s) {
		c.errorf("Invalid %s '%s': must be %s", key, s, want)
	}
}

func checkDelete(c *checker) {
	p, ok := Stringify(c.args["path"])
	if !ok {
		return
	}
	cleaned := strings.Trim(filepath.ToSlash(filepath.Clean(p)), "/")
	if cleaned == "" {
		cleaned = p
	}
	for _, protected := range ProtectedPaths {
		if cleaned == protected || strings.TrimSpace(p) == protected {
			c.errorf("Cannot delete protected path: %s", p)
			return
		}
	}
}

func checkRename(c *checker) {
	p, _ := c.str("path")
	name, ok := c.str("new_name")
	if !ok {
		return
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		c.errorf("Invalid new_name '%s': must be a single file name", name)
	}
	if p != "" && filepath.Base(p) == name {
		c.errorf("New name must differ from the current name: %s", name)
	}
	if len(name) > 255 {
		c.errorf("Invalid new_name: longer than 255 characters")
	}
}

func checkMemoryKey(c *checker) {
	c.match("key", memoryKeyRe, "1-100 letters, digits, '.', '-' or '_'")
}

func checkTodo(c *checker) {
	c.enum("action", TodoActions)
	action, _ := c.str("action")
	switch action {
	case "add":
		if _, ok := c.str("content"); !ok {
			c.errorf("Missing required parameter: content")
		}
	case "complete", "remove":
		v, ok := c.str("id")
		if !ok {
			c.errorf("Missing required parameter: id")
			return
		}
		if _, err := strconv.Atoi(v); err != nil {
			c.errorf("Parameter 'id' must be an integer")
		}
	}
}

func checkRefactor(c *checker) {
	c.enum("operation", RefactorOperations)
	if op, _ := c.str("operation"); op != "rename_symbol" {
		return
	}
	oldName, okOld := c.str("old_name")
	newName, okNew := c.str("new_name")
	if !okOld {
		c.errorf("Missing required parameter: old_name")
	}
	if !okNew {
		c.errorf("Missing required parameter: new_name")
	}
	if okOld && okNew && oldName == newName {
		c.errorf("old_name and new_name must differ")
	}
	c.match("new_name", identifierRe, "a valid identifier")
}

func checkValidateJSON(c *checker) {
	_, hasPath := c.str("path")
	_, hasContent := c.str("content")
	if !hasPath && !hasContent {
		c.errorf("Either 'path' or 'content' is required")
	}
}

func checkDiffOptions(c *checker) {
	c.enum("format", DiffFormats)
	if v, ok := c.args["context_lines"]; ok {
		if n, ok := Number(v); ok && (n < 0 || n > 100) {
			c.errorf("Parameter 'context_lines' must be between 0 and 100")
		}
	}
	if v, ok := c.args["width"]; ok {
		if n, ok := Number(v); ok && (n < 10 || n > 500) {
			c.errorf("Parameter 'width' must be between 10 and 500")
		}
	}
}

func checkCommand(c *checker) {
	if s, ok := c.str("command"); ok && len(s) > MaxCommandLength {
		c.errorf("Command exceeds %d characters", MaxCommandLength)
	}
	c.minNumber("timeout", 0)
}

func checkURL(c *checker) {
	raw, ok := c.str("url")
	if !ok {
		return
	}
	if len(raw) > MaxURLLength {
		c.errorf("URL exceeds %d characters", MaxURLLength)
		return
	}
	u, err := url.Parse(raw)
	if err != nil {
		c.errorf("Invalid URL '%s': %v", raw, err)
		return
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		c.errorf("Invalid URL scheme '%s': only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		c.errorf("Invalid URL '%s': missing host", raw)
	}
	c.minNumber("timeout", 0)
}

func checkBranch(c *checker) {
	c.enum("action", BranchActions)
	action, _ := c.str("action")
	name, hasName := c.str("name")
	if (action == "create" || action == "switch") && !hasName {
		c.errorf("Missing required parameter: name")
		return
	}
	if hasName {
		if err := CheckBranchName(name); err != nil {
			c.errorf("Invalid branch name '%s': %v", name, err)
		}
	}
}

// CheckBranchName applies git's reference naming rules.
func CheckBranchName(name string) error {
	switch {
	case len(name) > 255:
		return fmt.Errorf("longer than 255 characters")
	case !branchCharsRe.MatchString(name):
		return fmt.Errorf("only letters, digits, '.', '_', '-' and '/' are allowed")
	case strings.HasPrefix(name, "-"), strings.HasPrefix(name, "/"), strings.HasPrefix(name, "."):
		return fmt.Errorf("must not start with '-', '/' or '.'")
	case strings.HasSuffix(name, "/"), strings.HasSuffix(name, "."), strings.HasSuffix(name, ".lock"):
		return fmt.Errorf("must not end with '/', '.' or '.lock'")
	case strings.Contains(name, ".."), strings.Contains(name, "//"), strings.Contains(name, "/."):
		return fmt.Errorf("must not contain '..', '//' or '/.'")
	}
	return nil
}

// SplitPatterns splits a comma or newline separated list of expressions.
func SplitPatterns(s string) []string {
	var out []string
	for _, p := range strings.FieldsFunc(s, func(r rune) bool { return r == '\n' || r == ',' }) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Stringify renders a JSON-decoded scalar as a string.
func Stringify(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case json.Number:
		return x.String(), true
	}
	return "", false
}

// Number reads a numeric argument that may arrive as a JSON number or a
// numeric string.
func Number(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		return f, err == nil
	}
	return 0, false
}

// Bool reads a boolean argument that may arrive as a JSON boolean or a
// "true"/"false" string.
func Bool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	}
	return false, false
}
