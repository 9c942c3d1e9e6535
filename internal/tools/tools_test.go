package tools

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonyos/agentcore/internal/events"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/web"
)

const demo = "demo"

type recordingSink struct{ got []events.ToolCall }

func (s *recordingSink) Publish(_ context.Context, ev events.ToolCall) error {
	s.got = append(s.got, ev)
	return nil
}

func (s *recordingSink) Close() error { return nil }

type callStat struct {
	tool    string
	success bool
	kind    string
}

type recordingMetrics struct{ calls []callStat }

func (m *recordingMetrics) ToolCall(tool string, success bool, kind string, _ time.Duration) {
	m.calls = append(m.calls, callStat{tool, success, kind})
}

func (m *recordingMetrics) TurnEnded(string, int) {}

func newExecutor(t *testing.T, opts Options) (*Executor, string) {
	t.Helper()
	store, err := project.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	root, err := store.Root(demo)
	require.NoError(t, err)
	opts.Store = store
	return NewExecutor(opts), root
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		p := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

func run(t *testing.T, e *Executor, name string, args map[string]any) ToolResult {
	t.Helper()
	return e.ExecuteArgs(context.Background(), demo, name, args)
}

func TestRegistry_EveryToolHasHandler(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	for _, d := range e.Registry().List() {
		_, ok := e.lookup(d.Name)
		assert.True(t, ok, "no handler for %s", d.Name)
	}
	assert.Len(t, e.core, len(CoreDefinitions()))
	assert.Len(t, e.extended, len(ExtendedDefinitions()))
}

func TestRegistry_Basic(t *testing.T) {
	basic := DefaultRegistry().Basic()
	require.NotEmpty(t, basic.List())
	for _, d := range basic.List() {
		assert.True(t, d.Basic, d.Name)
	}
	_, ok := basic.ByName("read_file")
	assert.True(t, ok)
	_, ok = basic.ByName("write_file")
	assert.False(t, ok, "write_file mutates the project")
	_, ok = basic.ByName("run_command")
	assert.False(t, ok)
}

func TestRegistry_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() { NewRegistry(CoreDefinitions(), CoreDefinitions()) })
}

func TestRegistry_OpenAITools(t *testing.T) {
	r := DefaultRegistry()
	got := r.OpenAITools()
	require.Len(t, got, len(r.List()))
	for _, tool := range got {
		assert.Equal(t, "function", tool.Type)
		params := tool.Function.Parameters
		assert.Equal(t, "object", params["type"], tool.Function.Name)
		assert.Contains(t, params, "properties")
		assert.IsType(t, []string{}, params["required"])
	}
	assert.Contains(t, r.Describe(), "* read_file(path)")
}

func TestExecute_UnknownTool(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	res := e.Execute(context.Background(), demo, "unknown_tool_xyz", "{}")
	assert.False(t, res.Success)
	assert.Empty(t, res.Output)
	assert.Equal(t, "Unknown tool: unknown_tool_xyz", res.Error)
}

func TestExecute_MalformedArguments(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	tests := []struct {
		name string
		args string
		want string
	}{
		{"truncated", `{"path": "a.txt"`, "Invalid JSON arguments"},
		{"not an object", `["a.txt"]`, "must be a JSON object"},
		{"trailing data", `{"path": "a.txt"} {}`, "unexpected data"},
		{"missing required", `{}`, "Invalid arguments"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := e.Execute(context.Background(), demo, "read_file", tt.args)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.want)
			assert.Equal(t, KindValidation, res.Kind)
		})
	}
}

func TestParseArguments(t *testing.T) {
	args, err := ParseArguments("  ")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = ParseArguments("null")
	require.NoError(t, err)
	assert.Empty(t, args)

	args, err = ParseArguments(`{"count": 12}`)
	require.NoError(t, err)
	assert.Equal(t, "12", args["count"].(interface{ String() string }).String())
}

func TestExecute_Policy(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{"keep.txt": "x"})
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(root, "link")))

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"protected delete", "delete_file", map[string]any{"path": ".git"}, "protected path"},
		{"root delete", "delete_file", map[string]any{"path": "."}, "protected path"},
		{"escape", "read_file", map[string]any{"path": "../../etc/passwd"}, "Invalid arguments"},
		{"symlink escape", "write_file", map[string]any{"path": "link/x.txt", "content": "x"}, "path escapes project root"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, e, tt.tool, tt.args)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.want)
			assert.Equal(t, KindPolicy, res.Kind)
		})
	}
	assert.FileExists(t, filepath.Join(root, "keep.txt"))
	assert.NoFileExists(t, filepath.Join(outside, "x.txt"))
}

func TestExecute_DeleteDeclined(t *testing.T) {
	e, root := newExecutor(t, Options{Confirm: func(string) bool { return false }})
	writeFiles(t, root, map[string]string{"a.txt": "a"})

	res := run(t, e, "delete_file", map[string]any{"path": "a.txt"})
	assert.False(t, res.Success)
	assert.Equal(t, KindPolicy, res.Kind)
	assert.FileExists(t, filepath.Join(root, "a.txt"))
}

func TestFileTools(t *testing.T) {
	e, root := newExecutor(t, Options{})

	res := run(t, e, "write_file", map[string]any{"path": "src/app.js", "content": "hello\nworld\n"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Wrote 12 bytes to src/app.js", res.Output)

	res = run(t, e, "read_file", map[string]any{"path": "src/app.js"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "hello\nworld\n", res.Output)

	res = run(t, e, "create_file", map[string]any{"path": "src/app.js"})
	assert.False(t, res.Success)
	assert.Equal(t, "File already exists: src/app.js", res.Error)

	res = run(t, e, "read_file", map[string]any{"path": "missing.txt"})
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)

	res = run(t, e, "rename_file", map[string]any{"path": "src/app.js", "new_name": "main.js"})
	require.True(t, res.Success, res.Error)
	assert.FileExists(t, filepath.Join(root, "src", "main.js"))

	res = run(t, e, "list_files", nil)
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "main.js")
	assert.Contains(t, res.Output, "1 files, 1 folders")

	res = run(t, e, "delete_file", map[string]any{"path": "src/main.js"})
	require.True(t, res.Success, res.Error)
	assert.NoFileExists(t, filepath.Join(root, "src", "main.js"))
}

func TestPathForms(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{"src/a.js": "let a = 1\n"})

	for _, p := range []string{"src", "/src", "./src/"} {
		res := run(t, e, "list_files", map[string]any{"path": p})
		require.True(t, res.Success, "%s: %s", p, res.Error)
		assert.Contains(t, res.Output, "a.js", p)
	}
	for _, p := range []string{"src/a.js", "/src/a.js"} {
		res := run(t, e, "read_file", map[string]any{"path": p})
		require.True(t, res.Success, "%s: %s", p, res.Error)
		assert.Equal(t, "let a = 1\n", res.Output, p)
	}

	// a host path is read as relative to the project root by every tool
	for _, tc := range []struct{ tool, path string }{
		{"list_files", filepath.Join(root, "src")},
		{"search_files", filepath.Join(root, "src")},
		{"read_file", filepath.Join(root, "src", "a.js")},
	} {
		args := map[string]any{"path": filepath.ToSlash(tc.path)}
		if tc.tool == "search_files" {
			args["query"] = "let"
		}
		res := run(t, e, tc.tool, args)
		assert.False(t, res.Success, tc.tool)
		assert.Equal(t, KindNotFound, res.Kind, "%s: %s", tc.tool, res.Error)
	}
}

func TestReplaceInFile(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{"a.txt": "one two one"})

	tests := []struct {
		name    string
		args    map[string]any
		want    string
		content string
	}{
		{"first only", map[string]any{"search": "one", "replace": "1"}, "Replaced 1 occurrence(s) in a.txt", "1 two one"},
		{"all", map[string]any{"search": "one", "replace": "1", "replace_all": true}, "Replaced 1 occurrence(s) in a.txt", "1 two 1"},
		{"regex group", map[string]any{"search": `(\d) two`, "replace": "$1 2", "use_regex": true}, "Replaced 1 occurrence(s) in a.txt", "1 2 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.args["path"] = "a.txt"
			res := run(t, e, "replace_in_file", tt.args)
			require.True(t, res.Success, res.Error)
			assert.Equal(t, tt.want, res.Output)
			got, _ := os.ReadFile(filepath.Join(root, "a.txt"))
			assert.Equal(t, tt.content, string(got))
		})
	}

	res := run(t, e, "replace_in_file", map[string]any{"path": "a.txt", "search": "zzz", "replace": "y"})
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestSearchFiles(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{
		"a.js":     "const Foo = 1;\nfoo();\n",
		"b.py":     "foo = 2\n",
		"logo.png": "foo",
	})

	res := run(t, e, "search_files", map[string]any{"query": "foo"})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "Found 3 match(es) in 2 file(s)")

	res = run(t, e, "search_files", map[string]any{"query": "foo", "case_sensitive": true, "file_pattern": "*.js"})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "Found 1 match(es) in 1 file(s)")
	assert.Contains(t, res.Output, "a.js:2: foo();")

	res = run(t, e, "search_files", map[string]any{"query": "nothing"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "No matches found for 'nothing' (2 files searched)", res.Output)
}

func TestBatchModify_DryRunMatchesApply(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{
		"a.js":  "var x = old;\nold();\n",
		"b.js":  "old\n",
		"c.txt": "old\n",
	})
	args := map[string]any{"file_pattern": "*.js", "search": "old", "replace": "new", "dry_run": true}

	dry := run(t, e, "batch_modify", args)
	require.True(t, dry.Success, dry.Error)
	assert.True(t, strings.HasPrefix(dry.Output, "Would change 2 file(s):"))
	got, _ := os.ReadFile(filepath.Join(root, "a.js"))
	assert.Equal(t, "var x = old;\nold();\n", string(got), "dry run must not write")

	args["dry_run"] = false
	real := run(t, e, "batch_modify", args)
	require.True(t, real.Success, real.Error)
	assert.True(t, strings.HasPrefix(real.Output, "Changed 2 file(s):"))

	body := func(s string) string { _, rest, _ := strings.Cut(s, "\n"); return rest }
	assert.Equal(t, body(dry.Output), body(real.Output))

	got, _ = os.ReadFile(filepath.Join(root, "a.js"))
	assert.Equal(t, "var x = new;\nnew();\n", string(got))
	got, _ = os.ReadFile(filepath.Join(root, "c.txt"))
	assert.Equal(t, "old\n", string(got))
}

func TestBatchRename(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{
		"img/a.jpeg": "a",
		"img/b.jpeg": "b",
		"img/b.jpg":  "taken",
	})

	res := run(t, e, "batch_rename", map[string]any{"path": "img", "pattern": `\.jpeg$`, "replacement": ".jpg"})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "Changed 1 file(s)")
	assert.Contains(t, res.Output, "img/b.jpg already exists")
	assert.FileExists(t, filepath.Join(root, "img", "a.jpg"))
	assert.FileExists(t, filepath.Join(root, "img", "b.jpeg"))
}

func TestRefactorCode(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{
		"src/a.js": "import z from 'z';\nimport b from 'b';\nexport function foo() {}\n",
		"src/b.js": "foo();\nfoobar();\nthis.foo_x();\n",
	})

	res := run(t, e, "refactor_code", map[string]any{
		"operation": "rename_symbol", "path": "src", "old_name": "foo", "new_name": "bar",
	})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "Changed 2 file(s)")
	got, _ := os.ReadFile(filepath.Join(root, "src", "b.js"))
	assert.Equal(t, "bar();\nfoobar();\nthis.foo_x();\n", string(got))

	res = run(t, e, "refactor_code", map[string]any{"operation": "sort_imports", "path": "src/a.js"})
	require.True(t, res.Success, res.Error)
	got, _ = os.ReadFile(filepath.Join(root, "src", "a.js"))
	assert.Equal(t, "import b from 'b';\nimport z from 'z';\nexport function bar() {}\n", string(got))

	res = run(t, e, "refactor_code", map[string]any{"operation": "sort_imports", "path": "src/a.js"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "No changes needed", res.Output)
}

func TestReplaceIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
		n    int
	}{
		{"foo", "bar", 1},
		{"foo.foo(foo)", "bar.bar(bar)", 3},
		{"food $foo foo_", "food $foo foo_", 0},
		{"", "", 0},
	}
	for _, tt := range tests {
		got, n := replaceIdentifier(tt.in, "foo", "bar")
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.n, n, tt.in)
	}
}

func TestScaffoldAndGenerate(t *testing.T) {
	e, root := newExecutor(t, Options{})

	res := run(t, e, "scaffold_project", map[string]any{"type": "node", "name": "my-app"})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "Created node project 'my-app'")
	pkg, err := os.ReadFile(filepath.Join(root, "my-app", "package.json"))
	require.NoError(t, err)
	assert.Contains(t, string(pkg), "my-app")

	res = run(t, e, "scaffold_project", map[string]any{"type": "node", "name": "my-app"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "already exists")

	res = run(t, e, "generate_code", map[string]any{"template": "function", "name": "parse-input"})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "export function parseInput(input)")

	res = run(t, e, "generate_code", map[string]any{"template": "function", "name": "parse_input", "language": "py", "path": "util.py"})
	require.True(t, res.Success, res.Error)
	code, err := os.ReadFile(filepath.Join(root, "util.py"))
	require.NoError(t, err)
	assert.Contains(t, string(code), "def parse_input(value):")

	res = run(t, e, "generate_code", map[string]any{"template": "component", "name": "x", "language": "python"})
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "not available for python")
}

func TestNewNames(t *testing.T) {
	n := newNames("userProfile-card")
	assert.Equal(t, names{
		Name:    "userProfile-card",
		Title:   "User Profile Card",
		Pascal:  "UserProfileCard",
		Camel:   "userProfileCard",
		Kebab:   "user-profile-card",
		Snake:   "user_profile_card",
		Package: "userprofilecard",
	}, n)
}

func TestDiffContent(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	res := run(t, e, "diff_content", map[string]any{
		"original":      "a\nb\nc",
		"modified":      "a\nx\nc",
		"context_lines": 1,
	})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "--- original\n+++ modified\n@@ -1,3 +1,3 @@\n a\n-b\n+x\n c\n\\ No newline at end of file\n", res.Output)

	res = run(t, e, "diff_content", map[string]any{"original": "a\nb", "modified": "a\nc\nd", "format": "stats"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "+2 additions, -1 deletions, 1 unchanged", res.Output)
}

func TestApplyPatch(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{"a.txt": "a\nb\nc\n"})
	patch := "@@ -1,3 +1,3 @@\n a\n-b\n+x\n c\n"

	res := run(t, e, "apply_patch", map[string]any{"path": "a.txt", "patch": patch, "dry_run": true})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Patch applies cleanly to a.txt (+1 -1)", res.Output)

	res = run(t, e, "apply_patch", map[string]any{"path": "a.txt", "patch": patch})
	require.True(t, res.Success, res.Error)
	got, _ := os.ReadFile(filepath.Join(root, "a.txt"))
	assert.Equal(t, "a\nx\nc\n", string(got))

	// the same patch no longer matches
	res = run(t, e, "apply_patch", map[string]any{"path": "a.txt", "patch": patch})
	assert.False(t, res.Success)
	assert.Equal(t, KindValidation, res.Kind)
	got, _ = os.ReadFile(filepath.Join(root, "a.txt"))
	assert.Equal(t, "a\nx\nc\n", string(got))
}

func TestMemoryAndTodos(t *testing.T) {
	e, _ := newExecutor(t, Options{})

	require.True(t, run(t, e, "save_memory", map[string]any{"key": "style", "value": "tabs"}).Success)
	res := run(t, e, "recall_memory", map[string]any{"key": "style"})
	assert.Equal(t, "tabs", res.Output)

	res = run(t, e, "recall_memory", map[string]any{"key": "nope"})
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)

	res = run(t, e, "list_memories", nil)
	assert.Contains(t, res.Output, "- style: tabs")

	res = run(t, e, "manage_todos", map[string]any{"action": "add", "content": "write tests"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "Added todo #1: write tests", res.Output)
	run(t, e, "manage_todos", map[string]any{"action": "add", "content": "ship"})
	require.True(t, run(t, e, "manage_todos", map[string]any{"action": "complete", "id": 1}).Success)

	res = run(t, e, "manage_todos", map[string]any{"action": "list"})
	assert.Equal(t, "Todos (1/2 done):\n[x] #1 write tests\n[ ] #2 ship\n", res.Output)

	res = run(t, e, "manage_todos", map[string]any{"action": "remove", "id": 9})
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestScanTools(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{
		"config.js": "const api_key = \"abcdefghijklmnopqrstuvwx\";\n",
		"view.js":   "el.innerHTML = input;\neval(code);\n",
	})

	res := run(t, e, "scan_secrets", nil)
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "Found 1 potential secret(s)")
	assert.Contains(t, res.Output, "API Key at config.js:1")
	assert.NotContains(t, res.Output, "abcdefghijklmnopqrstuvwx")

	res = run(t, e, "scan_secrets", map[string]any{"custom_patterns": "("})
	assert.False(t, res.Success)
	assert.Equal(t, KindValidation, res.Kind)

	res = run(t, e, "security_scan", map[string]any{"min_severity": "high"})
	require.True(t, res.Success, res.Error)
	assert.Contains(t, res.Output, "view.js:2")

	res = run(t, e, "analyze_performance", map[string]any{"path": "nowhere"})
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestWebFetch_TitleOnce(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Docs</title></head><body><p>Hello.</p></body></html>"))
	}))
	defer srv.Close()
	e, _ := newExecutor(t, Options{Fetcher: web.NewFetcher(srv.Client(), nil)})

	res := run(t, e, "web_fetch", map[string]any{"url": srv.URL + "/docs"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "URL: "+srv.URL+"/docs\n\n# Docs\n\nHello.", res.Output)
}

func TestCheckCommand(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	tests := []struct {
		command string
		want    string
	}{
		{"ls -la", "Allowed: ls -la"},
		{"sudo ls", "Blocked: blocked: privilege escalation"},
		{"nc -l 80", "Blocked: command 'nc' is not in the allow-list"},
	}
	for _, tt := range tests {
		res := run(t, e, "check_command", map[string]any{"command": tt.command})
		require.True(t, res.Success, res.Error)
		assert.Equal(t, tt.want, res.Output)
	}
}

func TestRunCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("uses /bin/sh")
	}
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{"sub/f.txt": "x"})

	res := run(t, e, "run_command", map[string]any{"command": "echo hello"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "hello", res.Output)

	res = run(t, e, "run_command", map[string]any{"command": "ls", "working_dir": "sub"})
	require.True(t, res.Success, res.Error)
	assert.Equal(t, "f.txt", res.Output)

	res = run(t, e, "run_command", map[string]any{"command": "false"})
	assert.False(t, res.Success)
	assert.Equal(t, KindFailed, res.Kind)
	assert.Equal(t, "[exit code 1]", res.Output)

	res = run(t, e, "run_command", map[string]any{"command": "sleep 5", "timeout": 1})
	assert.False(t, res.Success)
	assert.Equal(t, KindTimeout, res.Kind)

	res = run(t, e, "run_command", map[string]any{"command": "sudo ls"})
	assert.False(t, res.Success)
	assert.Equal(t, KindPolicy, res.Kind)
	assert.Contains(t, res.Error, "Command blocked")
}

func TestDetectTestCommand(t *testing.T) {
	tests := []struct {
		files []string
		want  string
	}{
		{[]string{"README.md", "go.mod"}, "go test ./..."},
		{[]string{"requirements.txt", "package.json"}, "npm test"},
		{[]string{"build.gradle.kts", "gradlew"}, "./gradlew test"},
		{[]string{"README.md"}, ""},
	}
	for _, tt := range tests {
		var nodes []project.Node
		for _, f := range tt.files {
			nodes = append(nodes, project.NewFileNode(f))
		}
		assert.Equal(t, tt.want, detectTestCommand(nodes), tt.files)
	}
}

func TestRunTests_NoRunner(t *testing.T) {
	e, root := newExecutor(t, Options{})
	writeFiles(t, root, map[string]string{"notes.md": "x"})
	res := run(t, e, "run_tests", nil)
	assert.False(t, res.Success)
	assert.Equal(t, KindNotFound, res.Kind)
}

func TestExecute_RecoversPanics(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	e.core["list_memories"] = func(context.Context, *call) (string, error) { panic("boom") }

	res := run(t, e, "list_memories", nil)
	assert.False(t, res.Success)
	assert.Equal(t, "Internal error in list_memories: boom", res.Error)
	assert.Equal(t, KindInternal, res.Kind)
}

func TestExecute_RecordsEventsAndMetrics(t *testing.T) {
	sink := &recordingSink{}
	rec := &recordingMetrics{}
	e, _ := newExecutor(t, Options{Events: sink, Metrics: rec})

	ctx := WithTurn(context.Background(), "turn-1")
	e.Execute(ctx, demo, "write_file", `{"path": "a.txt", "content": "abc"}`)
	e.Execute(ctx, demo, "read_file", `{"path": "missing.txt"}`)

	require.Len(t, sink.got, 2)
	assert.Equal(t, "turn-1", sink.got[0].TurnID)
	assert.Equal(t, "write_file", sink.got[0].Tool)
	assert.True(t, sink.got[0].Success)
	assert.NotEmpty(t, sink.got[0].ID)
	assert.False(t, sink.got[1].Success)
	assert.Equal(t, string(KindNotFound), sink.got[1].Kind)

	assert.Equal(t, []callStat{
		{"write_file", true, ""},
		{"read_file", false, "not_found"},
	}, rec.calls)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("  short\n", 10))
	assert.Equal(t, "héll…", Preview("héllo world", 4))
	assert.Equal(t, "abc", Preview("abc", 0))
}

func TestFinishAndAsk(t *testing.T) {
	e, _ := newExecutor(t, Options{})
	assert.Equal(t, "all done", run(t, e, "finish_task", map[string]any{"summary": "all done"}).Output)
	assert.Equal(t, "which db?", run(t, e, "ask_user", map[string]any{"question": "which db?"}).Output)
}
