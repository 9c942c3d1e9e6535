package rules

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeRule(t *testing.T, dir, file, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, file), []byte(content), 0o644))
}

func TestParse(t *testing.T) {
	r, err := Parse("---\nname: go-style\ndescription: House style\ntags: [go, style]\n---\n\nRun gofmt.\n")
	require.NoError(t, err)
	assert.Equal(t, "go-style", r.Name)
	assert.Equal(t, "House style", r.Description)
	assert.Equal(t, []string{"go", "style"}, r.Tags)
	assert.Equal(t, "Run gofmt.", r.Text)

	_, err = Parse("no frontmatter here")
	assert.ErrorIs(t, err, ErrMissingFrontmatter)

	_, err = Parse("---\nname: unterminated\n")
	assert.ErrorIs(t, err, ErrMissingFrontmatter)

	_, err = Parse("---\ndescription: nameless\n---\nbody")
	assert.ErrorIs(t, err, ErrMissingName)
}

func TestLoad_ProjectOverridesGlobal(t *testing.T) {
	global := filepath.Join(t.TempDir(), "rules")
	root := t.TempDir()
	project := filepath.Join(root, ".agentcore", "rules")

	writeRule(t, global, "a.md", "---\nname: tests\n---\nAlways run the tests.")
	writeRule(t, global, "b.md", "---\nname: commits\n---\nUse short commit subjects.")
	writeRule(t, global, "notes.txt", "ignored")
	writeRule(t, project, "tests.md", "---\nname: tests\n---\nRun make test.")
	writeRule(t, project, "broken.md", "no frontmatter")
	writeRule(t, project, "off.md", "---\nname: off\ndisabled: true\n---\nNever shown.")

	got, err := NewLoader(global, root, nil).Load()
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "tests", got[0].Name)
	assert.Equal(t, "Run make test.", got[0].Text)
	assert.False(t, got[0].Global)
	assert.Equal(t, "commits", got[1].Name)
	assert.True(t, got[1].Global)
	assert.Equal(t, "off", got[2].Name)

	assert.Equal(t, "## tests\n\nRun make test.\n\n## commits\n\nUse short commit subjects.", Render(got))
}

func TestLoad_MissingDirectories(t *testing.T) {
	got, err := NewLoader(filepath.Join(t.TempDir(), "nope"), t.TempDir(), nil).Load()
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, Render(got))
}
