package tools

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"
	"unicode"

	"gopkg.in/yaml.v3"

	"github.com/simonyos/agentcore/internal/project"
)

//go:embed templates/*.yaml
var templateFS embed.FS

type scaffoldFile struct {
	Path    string `yaml:"path"`
	Content string `yaml:"content"`
}

type scaffold struct {
	Description string         `yaml:"description"`
	Files       []scaffoldFile `yaml:"files"`
}

type catalogs struct {
	scaffolds map[string]scaffold
	// code templates by template name, then language
	code map[string]map[string]string
}

var loadCatalogs = sync.OnceValues(func() (*catalogs, error) {
	c := &catalogs{}
	if err := decodeTemplate("templates/scaffold.yaml", &c.scaffolds); err != nil {
		return nil, err
	}
	if err := decodeTemplate("templates/code.yaml", &c.code); err != nil {
		return nil, err
	}
	return c, nil
})

func decodeTemplate(name string, v any) error {
	data, err := templateFS.ReadFile(name)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

// names holds the spellings of a user-supplied name that templates use.
type names struct {
	Name    string
	Title   string
	Pascal  string
	Camel   string
	Kebab   string
	Snake   string
	Package string
}

func newNames(name string) names {
	words := splitWords(name)
	lower := make([]string, len(words))
	pascal := make([]string, len(words))
	for i, w := range words {
		lower[i] = strings.ToLower(w)
		pascal[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	n := names{
		Name:    name,
		Title:   strings.Join(pascal, " "),
		Pascal:  strings.Join(pascal, ""),
		Kebab:   strings.Join(lower, "-"),
		Snake:   strings.Join(lower, "_"),
		Package: strings.Join(lower, ""),
	}
	if len(lower) > 0 {
		n.Camel = lower[0] + strings.Join(pascal[1:], "")
	}
	if n.Package == "" || unicode.IsDigit(rune(n.Package[0])) {
		n.Package = "app" + n.Package
	}
	return n
}

// splitWords breaks a name on '-', '_', spaces and lower-to-upper case
// changes.
func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	rs := []rune(s)
	for i, r := range rs {
		switch {
		case r == '-' || r == '_' || r == ' ' || r == '$':
			flush()
			continue
		case unicode.IsUpper(r) && i > 0 && unicode.IsLower(rs[i-1]):
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func render(name, text string, data names) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(text)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	if err := t.Execute(&sb, data); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (e *Executor) scaffoldProject(_ context.Context, c *call) (string, error) {
	cat, err := loadCatalogs()
	if err != nil {
		return "", err
	}
	kind, name := c.str("type"), c.str("name")
	sc, ok := cat.scaffolds[kind]
	if !ok {
		return "", errorf(KindValidation, "Unknown project type '%s'", kind)
	}
	if err := e.store.CreateFolder(c.projectID, name); err != nil {
		if errors.Is(err, project.ErrExists) {
			return "", errorf(KindValidation, "Project folder '%s' already exists", name)
		}
		return "", err
	}

	data := newNames(name)
	var created []string
	for _, f := range sc.Files {
		rel, err := render(f.Path, f.Path, data)
		if err != nil {
			return "", err
		}
		content, err := render(rel, f.Content, data)
		if err != nil {
			return "", err
		}
		p := path.Join(name, rel)
		if err := e.store.CreateFile(c.projectID, p, content); err != nil {
			return fmt.Sprintf("Created %d of %d files before failing", len(created), len(sc.Files)), err
		}
		created = append(created, p)
	}
	return fmt.Sprintf("Created %s project '%s' (%s) with %d files:\n  %s",
		kind, name, sc.Description, len(created), strings.Join(created, "\n  ")), nil
}

func (e *Executor) generateCode(_ context.Context, c *call) (string, error) {
	cat, err := loadCatalogs()
	if err != nil {
		return "", err
	}
	tmpl, name := c.str("template"), c.str("name")
	lang := strings.ToLower(c.strOr("language", "javascript"))
	switch lang {
	case "js", "jsx":
		lang = "javascript"
	case "ts", "tsx":
		lang = "typescript"
	case "py":
		lang = "python"
	case "kt":
		lang = "kotlin"
	}
	byLang, ok := cat.code[tmpl]
	if !ok {
		return "", errorf(KindValidation, "Unknown template '%s'", tmpl)
	}
	text, ok := byLang[lang]
	if !ok {
		langs := make([]string, 0, len(byLang))
		for l := range byLang {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		return "", errorf(KindValidation, "Template '%s' is not available for %s. Available: %s", tmpl, lang, strings.Join(langs, ", "))
	}
	code, err := render(tmpl, text, newNames(name))
	if err != nil {
		return "", err
	}

	p := c.str("path")
	if p == "" {
		return code, nil
	}
	if err := e.store.CreateFile(c.projectID, p, code); err != nil {
		if errors.Is(err, project.ErrExists) {
			return "", errorf(KindValidation, "File already exists: %s", p)
		}
		return "", err
	}
	return fmt.Sprintf("Generated %s %s '%s' in %s", lang, tmpl, name, p), nil
}
