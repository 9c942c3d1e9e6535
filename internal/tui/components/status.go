package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/tui/theme"
)

// Status renders the status bar at the bottom
type Status struct {
	Width    int
	Model    string
	Thinking bool
	// Prompt is a pending confirmation question.
	Prompt string

	Iterations int
	ToolCalls  int
	Failures   int
}

// NewStatus creates a new status bar
func NewStatus(width int, model string) *Status {
	return &Status{Width: width, Model: model}
}

// SetWidth updates the status bar width
func (s *Status) SetWidth(width int) {
	s.Width = width
}

// SetThinking sets the thinking state
func (s *Status) SetThinking(thinking bool) {
	s.Thinking = thinking
}

// SetTurn shows the counters of the running or last turn.
func (s *Status) SetTurn(iterations, calls, failures int) {
	s.Iterations, s.ToolCalls, s.Failures = iterations, calls, failures
}

// View renders the status bar
func (s *Status) View() string {
	t := theme.Current

	if s.Prompt != "" {
		q := lipgloss.NewStyle().Foreground(t.Warning).Bold(true).Render("? " + s.Prompt)
		return q + lipgloss.NewStyle().Foreground(t.TextMuted).Render("  [y/n]")
	}

	hint := "Enter to send · Ctrl+C to quit"
	if s.Thinking {
		hint = "Esc to stop the turn"
	}
	left := lipgloss.NewStyle().Foreground(t.TextMuted).Render(hint)

	var parts []string
	if s.Iterations > 0 {
		parts = append(parts, fmt.Sprintf("round %d", s.Iterations))
	}
	if s.ToolCalls > 0 {
		parts = append(parts, fmt.Sprintf("%d tools", s.ToolCalls))
	}
	if s.Failures > 0 {
		parts = append(parts, lipgloss.NewStyle().Foreground(t.Error).Render(fmt.Sprintf("%d failed", s.Failures)))
	}
	counters := lipgloss.NewStyle().Foreground(t.TextMuted).Render(strings.Join(parts, " · "))

	model := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.BackgroundSecondary).
		Padding(0, 1).
		Render(s.Model)
	if s.Thinking {
		model = lipgloss.NewStyle().Foreground(t.Primary).Render("● thinking...")
	}
	right := lipgloss.JoinHorizontal(lipgloss.Center, counters, "  ", model)

	spacing := max(s.Width-lipgloss.Width(left)-lipgloss.Width(right)-2, 0)
	return lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", spacing), right)
}
