package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/tui/theme"
)

// HelpDialog shows available keyboard shortcuts
type HelpDialog struct {
	Width int
}

// NewHelpDialog creates a help dialog
func NewHelpDialog() *HelpDialog {
	return &HelpDialog{Width: 56}
}

var shortcuts = [][2]string{
	{"enter", "Send message"},
	{"esc", "Stop the running turn / close"},
	{"ctrl+l", "Clear the transcript"},
	{"pgup/pgdown", "Scroll"},
	{"ctrl+c", "Quit"},
}

// View renders the help dialog
func (h *HelpDialog) View() string {
	t := theme.Current
	key := lipgloss.NewStyle().Foreground(t.Accent).Bold(true).Width(14)
	desc := lipgloss.NewStyle().Foreground(t.Text)

	var sb strings.Builder
	sb.WriteString(lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("Keyboard Shortcuts") + "\n\n")
	for _, s := range shortcuts {
		sb.WriteString(key.Render(s[0]) + desc.Render(s[1]) + "\n")
	}
	sb.WriteString("\n")
	for _, c := range Commands {
		sb.WriteString(key.Render(c.Name) + desc.Render(c.Description) + "\n")
	}
	sb.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).Render("\nPress any key to close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Primary).
		Padding(1, 2).
		Width(h.Width).
		Render(sb.String())
}

// PlaceOverlay centers the dialog on a screen of the given size.
func PlaceOverlay(overlay string, width, height int) string {
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, overlay,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(theme.Current.Background),
	)
}
