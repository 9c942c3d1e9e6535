package rules

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// ProjectDir is the rules directory inside a project root.
const ProjectDir = ".agentcore/rules"

// GlobalDir returns ~/.config/agentcore/rules, or "" without a home
// directory.
func GlobalDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "agentcore", "rules")
}

// Loader discovers rule files.
type Loader struct {
	global  string
	project string
	log     *zap.Logger
}

// NewLoader creates a loader for the global directory and the rules
// directory of the project at root. Either may be empty.
func NewLoader(global, root string, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	l := &Loader{global: global, log: log}
	if root != "" {
		l.project = filepath.Join(root, filepath.FromSlash(ProjectDir))
	}
	return l
}

// Load reads every rule. Files that cannot be parsed are skipped with a
// warning; missing directories are not an error.
func (l *Loader) Load() ([]Rule, error) {
	var out []Rule
	index := map[string]int{}
	for _, dir := range []struct {
		path   string
		global bool
	}{{l.global, true}, {l.project, false}} {
		if dir.path == "" {
			continue
		}
		loaded, err := l.loadDir(dir.path, dir.global)
		if err != nil {
			return nil, err
		}
		for _, r := range loaded {
			if i, ok := index[r.Name]; ok {
				out[i] = r
				continue
			}
			index[r.Name] = len(out)
			out = append(out, r)
		}
	}
	return out, nil
}

func (l *Loader) loadDir(dir string, global bool) ([]Rule, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var out []Rule
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		content, err := os.ReadFile(path)
		if err != nil {
			l.log.Warn("skipping rule", zap.String("file", path), zap.Error(err))
			continue
		}
		r, err := Parse(string(content))
		if err != nil {
			l.log.Warn("skipping rule", zap.String("file", path), zap.Error(err))
			continue
		}
		r.FilePath = path
		r.Global = global
		out = append(out, r)
	}
	return out, nil
}

// Parse reads a markdown rule with YAML frontmatter.
func Parse(content string) (Rule, error) {
	frontmatter, body, err := parseFrontmatter(content)
	if err != nil {
		return Rule{}, err
	}
	var r Rule
	if err := yaml.Unmarshal([]byte(frontmatter), &r); err != nil {
		return Rule{}, err
	}
	if strings.TrimSpace(r.Name) == "" {
		return Rule{}, ErrMissingName
	}
	r.Text = body
	return r, nil
}

func parseFrontmatter(content string) (frontmatter, body string, err error) {
	content = strings.TrimSpace(strings.ReplaceAll(content, "\r\n", "\n"))
	if !strings.HasPrefix(content, "---") {
		return "", "", ErrMissingFrontmatter
	}
	rest := content[3:]
	end := strings.Index(rest, "\n---")
	if end == -1 {
		return "", "", ErrMissingFrontmatter
	}
	return strings.TrimSpace(rest[:end]), strings.TrimSpace(rest[end+4:]), nil
}
