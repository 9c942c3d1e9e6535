package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/tui/theme"
)

// Command represents a slash command
type Command struct {
	Name        string
	Description string
}

// Commands lists the slash commands in display order.
var Commands = []Command{
	{Name: "/help", Description: "Show keyboard shortcuts and commands"},
	{Name: "/clear", Description: "Clear the transcript"},
	{Name: "/reset", Description: "Start a new conversation"},
	{Name: "/tools", Description: "List the advertised tools"},
	{Name: "/stop", Description: "Stop the running turn"},
	{Name: "/quit", Description: "Exit"},
}

// Suggestions shows command autocomplete suggestions
type Suggestions struct {
	visible  bool
	matches  []Command
	selected int
	width    int
}

// NewSuggestions creates a new suggestions component
func NewSuggestions() *Suggestions {
	return &Suggestions{}
}

// SetWidth sets the component width
func (s *Suggestions) SetWidth(width int) {
	s.width = width
}

// Filter shows the commands that start with input.
func (s *Suggestions) Filter(input string) {
	s.matches = s.matches[:0]
	s.visible = strings.HasPrefix(input, "/") && !strings.Contains(input, " ")
	if !s.visible {
		return
	}
	for _, cmd := range Commands {
		if strings.HasPrefix(cmd.Name, input) {
			s.matches = append(s.matches, cmd)
		}
	}
	if s.selected >= len(s.matches) {
		s.selected = 0
	}
}

// IsVisible returns whether suggestions are showing
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.matches) > 0
}

// Hide hides the suggestions
func (s *Suggestions) Hide() {
	s.visible = false
}

// MoveUp moves selection up
func (s *Suggestions) MoveUp() {
	if s.selected > 0 {
		s.selected--
	}
}

// MoveDown moves selection down
func (s *Suggestions) MoveDown() {
	if s.selected < len(s.matches)-1 {
		s.selected++
	}
}

// GetSelected returns the currently selected command
func (s *Suggestions) GetSelected() string {
	if s.selected < len(s.matches) {
		return s.matches[s.selected].Name
	}
	return ""
}

// View renders the suggestions
func (s *Suggestions) View() string {
	if !s.IsVisible() {
		return ""
	}
	t := theme.Current

	var sb strings.Builder
	for i, cmd := range s.matches {
		marker := "  "
		if i == s.selected {
			marker = "› "
		}
		row := lipgloss.NewStyle().Foreground(t.Primary).Render(marker) +
			lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(10).Render(cmd.Name) +
			lipgloss.NewStyle().Foreground(t.TextMuted).Render(cmd.Description)
		if i == s.selected {
			row = lipgloss.NewStyle().Background(t.BackgroundSecondary).Width(max(s.width-6, 0)).Render(row)
		}
		sb.WriteString(row + "\n")
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Italic(true).Render("↑↓ navigate • Tab to complete • Esc to cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(0, 1).
		Width(max(s.width-2, 0)).
		Render(sb.String())
}
