package components

import (
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/tui/theme"
)

// terminal replies such as the OSC 11 background query can leak into the
// input before the program takes over stdin
var oscReply = regexp.MustCompile(`\x1b?\][0-9]+;[^\x07\x1b\s]*(\x07|\x1b\\)?`)

// Editor is the message input component
type Editor struct {
	textarea textarea.Model
	width    int
	height   int
}

// NewEditor creates a new editor component
func NewEditor(width, height int) *Editor {
	ta := textarea.New()
	ta.Placeholder = "Describe the task..."
	ta.Prompt = "┃ "
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(theme.Current.TextMuted)
	ta.Focus()

	e := &Editor{textarea: ta}
	e.SetSize(width, height)
	return e
}

// SetSize updates the editor dimensions
func (e *Editor) SetSize(width, height int) {
	e.width = width
	e.height = height
	e.textarea.SetWidth(max(width-6, 10))
	e.textarea.SetHeight(max(height-2, 1))
}

// Value returns the trimmed input without leaked terminal replies.
func (e *Editor) Value() string {
	return strings.TrimSpace(oscReply.ReplaceAllString(e.textarea.Value(), ""))
}

// Reset clears the editor
func (e *Editor) Reset() {
	e.textarea.Reset()
}

// SetValue sets the editor content
func (e *Editor) SetValue(value string) {
	e.textarea.SetValue(value)
}

// Update handles textarea updates
func (e *Editor) Update(msg tea.Msg) (*Editor, tea.Cmd) {
	var cmd tea.Cmd
	e.textarea, cmd = e.textarea.Update(msg)
	return e, cmd
}

// View renders the editor
func (e *Editor) View() string {
	t := theme.Current
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderFocus).
		Width(max(e.width-2, 0)).
		Padding(0, 1).
		Render(e.textarea.View())
}
