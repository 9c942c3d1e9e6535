package ignore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMatchDefaults(t *testing.T) {
	m := New()
	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{".git", true, true},
		{".git/config", false, true},
		{"src/.git/HEAD", false, true},
		{".env", false, true},
		{".env.production", false, true},
		{"certs/server.pem", false, true},
		{"deploy/id_rsa", false, true},
		{"src/main.js", false, false},
		{"environment.md", false, false},
		{".gitignore", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.path, tt.isDir); got != tt.want {
			t.Errorf("Match(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestMatchPatterns(t *testing.T) {
	m := New(
		"build/",
		"/dist",
		"docs/internal/*.md",
		"**/fixtures/**",
		"*.log",
		"!keep.log",
	)
	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{"build", true, true},
		{"build", false, false},
		{"app/build/out.js", false, true},
		{"dist/app.js", false, true},
		{"app/dist/app.js", false, false},
		{"docs/internal/plan.md", false, true},
		{"docs/internal/sub/plan.md", false, false},
		{"test/fixtures/a/b.json", false, true},
		{"server.log", false, true},
		{"keep.log", false, false},
		{"logs/keep.log", false, false},
	}
	for _, tt := range tests {
		if got := m.Match(tt.path, tt.isDir); got != tt.want {
			t.Errorf("Match(%q, %v) = %v, want %v", tt.path, tt.isDir, got, tt.want)
		}
	}
}

func TestNegationCannotEscapeBlockedDir(t *testing.T) {
	m := New("vendor/", "!vendor/keep.go")
	if !m.Match("vendor/keep.go", false) {
		t.Error("file inside a blocked directory was re-included")
	}
}

func TestReadSkipsComments(t *testing.T) {
	m := &Matcher{}
	if err := m.Read(strings.NewReader("# comment\n\n  *.tmp  \n")); err != nil {
		t.Fatal(err)
	}
	if len(m.rules) != 1 {
		t.Fatalf("got %d rules, want 1", len(m.rules))
	}
	if !m.Match("a/b.tmp", false) {
		t.Error("expected *.tmp to match")
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(dir)
	if err != nil {
		t.Fatalf("Load without file: %v", err)
	}
	if m.Match("secrets.txt", false) {
		t.Error("secrets.txt blocked without a pattern")
	}

	if err := os.WriteFile(filepath.Join(dir, FileName), []byte("secrets.txt\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err = Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !m.Match("secrets.txt", false) {
		t.Error("pattern from .agentignore not applied")
	}
	if !m.Match(".git/config", false) {
		t.Error("defaults lost after loading file")
	}
}

func TestNilMatcher(t *testing.T) {
	var m *Matcher
	if m.Match(".git", true) {
		t.Error("nil matcher blocked a path")
	}
}
