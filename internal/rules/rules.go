// Package rules loads user instructions that are added to the system
// prompt. A rule is a markdown file with YAML frontmatter:
//
//	---
//	name: go-style
//	description: House style for Go code
//	tags: [go]
//	---
//	Run gofmt on every file you write.
//
// Rules are read from the global directory first and the project directory
// second. A project rule replaces a global rule with the same name.
package rules

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingFrontmatter indicates the rule file lacks YAML frontmatter
	ErrMissingFrontmatter = errors.New("rule file must start with YAML frontmatter (---)")

	// ErrMissingName indicates the rule has no name field
	ErrMissingName = errors.New("rule must have a name field")
)

// Rule is one block of user instructions.
type Rule struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Tags        []string `yaml:"tags"`

	// Disabled rules are listed but not added to the prompt.
	Disabled bool `yaml:"disabled"`

	Text     string `yaml:"-"`
	FilePath string `yaml:"-"`
	Global   bool   `yaml:"-"`
}

// Render joins the enabled rules into the text passed to the prompt
// builder, in load order.
func Render(rules []Rule) string {
	var parts []string
	for _, r := range rules {
		if r.Disabled || r.Text == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("## %s\n\n%s", r.Name, r.Text))
	}
	return strings.Join(parts, "\n\n")
}
