package validate

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateMissingRequired(t *testing.T) {
	res := Validate("write_file", map[string]any{}, "")
	assert.False(t, res.IsValid)
	assert.Equal(t, []string{
		"Missing required parameter: path",
		"Missing required parameter: content",
	}, res.Errors)
}

func TestValidateNilCountsAsMissing(t *testing.T) {
	res := Validate("rename_file", map[string]any{"path": nil, "new_name": nil}, "")
	assert.Len(t, res.Errors, 2)
}

func TestValidateUnknownToolPasses(t *testing.T) {
	res := Validate("unknown_tool_xyz", map[string]any{"anything": 1}, "")
	assert.True(t, res.IsValid)
	assert.Empty(t, res.Errors)
}

func TestValidateEmptyContentAllowed(t *testing.T) {
	res := Validate("write_file", map[string]any{"path": "a.txt", "content": ""}, "")
	assert.True(t, res.IsValid, res.Errors)
}

func TestValidateProtectedDelete(t *testing.T) {
	for _, p := range []string{".git", "node_modules", "/", ".", "./.git", ".git/"} {
		t.Run(p, func(t *testing.T) {
			res := Validate("delete_file", map[string]any{"path": p}, "")
			require.False(t, res.IsValid)
			assert.Contains(t, res.Error(), "protected path")
		})
	}

	res := Validate("delete_file", map[string]any{"path": "src/.git"}, "")
	assert.True(t, res.IsValid, res.Errors)
}

func TestValidateEnumEchoesValue(t *testing.T) {
	res := Validate("scaffold_project", map[string]any{"type": "cobol", "name": "demo"}, "")
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "Invalid type 'cobol'. Must be one of: html, react, node, python, kotlin", res.Errors[0])

	res = Validate("security_scan", map[string]any{"min_severity": "urgent"}, "")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "'urgent'")
}

func TestValidateAccumulates(t *testing.T) {
	res := Validate("diff_content", map[string]any{
		"original":      "a",
		"modified":      "b",
		"format":        "fancy",
		"context_lines": "many",
		"width":         5,
	}, "")
	assert.Len(t, res.Errors, 3)
}

func TestValidateRename(t *testing.T) {
	tests := []struct {
		name    string
		args    map[string]any
		wantErr string
	}{
		{"ok", map[string]any{"path": "src/a.js", "new_name": "b.js"}, ""},
		{"same", map[string]any{"path": "src/a.js", "new_name": "a.js"}, "must differ"},
		{"separator", map[string]any{"path": "a.js", "new_name": "x/b.js"}, "single file name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate("rename_file", tt.args, "")
			if tt.wantErr == "" {
				assert.True(t, res.IsValid, res.Errors)
				return
			}
			assert.Contains(t, res.Error(), tt.wantErr)
		})
	}
}

func TestValidateRefactor(t *testing.T) {
	res := Validate("refactor_code", map[string]any{
		"operation": "rename_symbol", "path": "a.js", "old_name": "foo", "new_name": "foo",
	}, "")
	assert.Equal(t, []string{"old_name and new_name must differ"}, res.Errors)

	res = Validate("refactor_code", map[string]any{"operation": "sort_imports", "path": "a.js"}, "")
	assert.True(t, res.IsValid, res.Errors)
}

func TestValidateNames(t *testing.T) {
	tests := []struct {
		tool  string
		args  map[string]any
		valid bool
	}{
		{"save_memory", map[string]any{"key": "build.cmd", "value": "make"}, true},
		{"save_memory", map[string]any{"key": "has space", "value": "x"}, false},
		{"save_memory", map[string]any{"key": strings.Repeat("k", 101), "value": "x"}, false},
		{"git_branch", map[string]any{"action": "create", "name": "feature/login"}, true},
		{"git_branch", map[string]any{"action": "create", "name": "bad..name"}, false},
		{"git_branch", map[string]any{"action": "switch", "name": "-f"}, false},
		{"git_branch", map[string]any{"action": "create"}, false},
		{"git_branch", map[string]any{"action": "list"}, true},
		{"generate_code", map[string]any{"template": "function", "name": "loadUser"}, true},
		{"generate_code", map[string]any{"template": "function", "name": "load-user"}, false},
		{"manage_todos", map[string]any{"action": "add", "content": "write tests"}, true},
		{"manage_todos", map[string]any{"action": "add"}, false},
		{"manage_todos", map[string]any{"action": "complete", "id": "3"}, true},
		{"manage_todos", map[string]any{"action": "complete", "id": float64(3)}, true},
		{"manage_todos", map[string]any{"action": "complete", "id": "three"}, false},
	}
	for _, tt := range tests {
		res := Validate(tt.tool, tt.args, "")
		assert.Equal(t, tt.valid, res.IsValid, "%s %v: %v", tt.tool, tt.args, res.Errors)
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url   string
		valid bool
	}{
		{"https://example.com/docs", true},
		{"http://localhost:8080", true},
		{"ftp://example.com", false},
		{"file:///etc/passwd", false},
		{"https://", false},
		{"https://example.com/" + strings.Repeat("a", MaxURLLength), false},
	}
	for _, tt := range tests {
		res := Validate("web_fetch", map[string]any{"url": tt.url}, "")
		assert.Equal(t, tt.valid, res.IsValid, "%s: %v", tt.url, res.Errors)
	}
}

func TestValidateRegexArguments(t *testing.T) {
	res := Validate("search_files", map[string]any{"query": "([", "use_regex": true}, "")
	assert.False(t, res.IsValid)

	res = Validate("search_files", map[string]any{"query": "([", "use_regex": "false"}, "")
	assert.True(t, res.IsValid, res.Errors)

	res = Validate("scan_secrets", map[string]any{"custom_patterns": `ok_\d+, (bad`}, "")
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], "(bad")
}

func TestValidateContentLimit(t *testing.T) {
	res := Validate("write_file", map[string]any{
		"path":    "big.txt",
		"content": strings.Repeat("x", MaxContentLength+1),
	}, "")
	assert.Equal(t, []string{"Parameter 'content' exceeds 1000000 characters"}, res.Errors)
}

func TestValidateTypes(t *testing.T) {
	res := Validate("run_command", map[string]any{"command": "ls", "timeout": "soon"}, "")
	assert.Equal(t, []string{"Parameter 'timeout' must be a number"}, res.Errors)

	res = Validate("apply_patch", map[string]any{"path": "a", "patch": "p", "dry_run": "maybe"}, "")
	assert.Equal(t, []string{"Parameter 'dry_run' must be a boolean"}, res.Errors)
}

func TestValidateValidateJSONNeedsInput(t *testing.T) {
	assert.False(t, Validate("validate_json", map[string]any{}, "").IsValid)
	assert.True(t, Validate("validate_json", map[string]any{"content": "{}"}, "").IsValid)
}

func TestCheckPath(t *testing.T) {
	assert.NoError(t, CheckPath("src/main.js"))
	assert.Error(t, CheckPath(strings.Repeat("a", MaxPathLength+1)))
	assert.Error(t, CheckPath("a\x00b"))
	assert.NoError(t, CheckPath(strings.Repeat("../", MaxParentSegments)+"x"))
	assert.Error(t, CheckPath(strings.Repeat("../", MaxParentSegments+1)+"x"))
}

func TestValidateSandbox(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "project")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "secret"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(base, "secret"), filepath.Join(root, "escape")))
	require.NoError(t, os.Symlink(filepath.Join(root, "src"), filepath.Join(root, "inner")))

	tests := []struct {
		path  string
		valid bool
	}{
		{"src/app.js", true},
		{"src/../README.md", true},
		{"new/dir/file.txt", true},
		{"/src/app.js", true},
		{"../secret/key", false},
		{"src/../../secret", false},
		{"escape/key", false},
		{"inner/app.js", true},
		{"inner/../../secret", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			res := Validate("read_file", map[string]any{"path": tt.path}, root)
			assert.Equal(t, tt.valid, res.IsValid, res.Errors)
			if !tt.valid {
				assert.Contains(t, res.Error(), "escapes project root")
			}
		})
	}
}

func TestResolveDanglingSymlink(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "project")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.Symlink(filepath.Join(base, "missing"), filepath.Join(root, "dangling")))

	_, err := Resolve(root, "dangling")
	assert.ErrorIs(t, err, ErrOutsideRoot)
}

// Every combination of up to four ".." segments around real directories
// and links must agree with a plain lexical check against the resolved
// location.
func TestResolveContainmentProperty(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "r")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a", "b"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "out"), 0o755))
	require.NoError(t, os.Symlink(filepath.Join(root, "a", "b"), filepath.Join(root, "lb")))
	require.NoError(t, os.Symlink(filepath.Join(base, "out"), filepath.Join(root, "lo")))

	croot, err := Canonical(root)
	require.NoError(t, err)

	segments := []string{"a", "b", "lb", "lo", "..", "x"}
	var gen func(prefix []string, ups int)
	gen = func(prefix []string, ups int) {
		if len(prefix) > 0 {
			p := strings.Join(prefix, "/")
			got, err := Resolve(root, p)
			// what the OS would give, computed independently
			want := osResolve(t, croot, prefix)
			inside := Within(croot, want)
			if inside {
				assert.NoError(t, err, p)
				assert.Equal(t, want, got, p)
			} else {
				assert.ErrorIs(t, err, ErrOutsideRoot, p)
			}
		}
		if len(prefix) == 5 {
			return
		}
		for _, s := range segments {
			n := ups
			if s == ".." {
				if n == 4 {
					continue
				}
				n++
			}
			gen(append(append([]string(nil), prefix...), s), n)
		}
	}
	gen(nil, 0)
}

// osResolve evaluates segs from dir using only existing directories, the
// way the kernel would, falling back to lexical joins for missing parts.
func osResolve(t *testing.T, dir string, segs []string) string {
	t.Helper()
	cur := dir
	for _, s := range segs {
		if s == ".." {
			cur = filepath.Dir(cur)
			continue
		}
		next := filepath.Join(cur, s)
		if real, err := filepath.EvalSymlinks(next); err == nil {
			next = real
		}
		cur = next
	}
	return cur
}
