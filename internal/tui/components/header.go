package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/tui/theme"
)

// Header shows the product name, the project and the tool mode.
type Header struct {
	Width    int
	Version  string
	Project  string
	Root     string
	ReadOnly bool
}

// NewHeader creates a new header component
func NewHeader(width int, version, project, root string, readOnly bool) *Header {
	return &Header{
		Width:    width,
		Version:  version,
		Project:  project,
		Root:     root,
		ReadOnly: readOnly,
	}
}

// SetWidth updates the header width
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header
func (h *Header) View() string {
	t := theme.Current

	logo := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◆ agentcore")
	version := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.BackgroundSecondary).
		Padding(0, 1).
		Render(fmt.Sprintf("v%s", h.Version))

	mode, modeColor := "agent", t.Success
	if h.ReadOnly {
		mode, modeColor = "read-only", t.Warning
	}
	badge := lipgloss.NewStyle().Foreground(modeColor).Render("● " + mode)

	root := h.Root
	if limit := 40; len(root) > limit {
		root = "..." + root[len(root)-limit+3:]
	}
	location := lipgloss.NewStyle().Foreground(t.Text).Bold(true).Render(h.Project) +
		lipgloss.NewStyle().Foreground(t.TextMuted).Render(" "+root)

	left := lipgloss.JoinHorizontal(lipgloss.Center, logo, "  ", version, "  ", badge)
	spacing := h.Width - lipgloss.Width(left) - lipgloss.Width(location) - 2
	if spacing < 1 {
		spacing = 1
	}
	line := lipgloss.JoinHorizontal(lipgloss.Center, left, strings.Repeat(" ", spacing), location)

	separator := lipgloss.NewStyle().Foreground(t.Border).Render(strings.Repeat("─", max(h.Width, 0)))
	return line + "\n" + separator
}
