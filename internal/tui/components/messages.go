package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/tui/theme"
)

// ToolState is the progress of a tool message.
type ToolState int

const (
	ToolRunning ToolState = iota
	ToolSucceeded
	ToolFailed
)

// Message represents a chat message
type Message struct {
	Role     string // "user", "assistant", "tool", "system", "error"
	Content  string
	ToolName string
	ToolArgs string
	State    ToolState
}

// maxToolResult bounds how much of a tool result is shown inline.
const maxToolResult = 300

// Messages is the scrollable message list component
type Messages struct {
	viewport  viewport.Model
	messages  []Message
	renderer  *glamour.TermRenderer
	width     int
	height    int
	welcome   string
	streaming string
}

// NewMessages creates a new messages component
func NewMessages(width, height int) *Messages {
	m := &Messages{viewport: viewport.New(width, height)}
	m.SetSize(width, height)
	return m
}

// SetSize updates the component dimensions
func (m *Messages) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = height

	// a fixed style avoids querying the terminal for its background
	m.renderer, _ = glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(max(width-10, 20)),
	)
	m.refresh()
}

// AddMessage adds a new message
func (m *Messages) AddMessage(msg Message) {
	m.messages = append(m.messages, msg)
	m.refresh()
}

// Clear removes all messages
func (m *Messages) Clear() {
	m.messages = nil
	m.streaming = ""
	m.refresh()
}

// Len returns the number of messages.
func (m *Messages) Len() int { return len(m.messages) }

// GetViewport returns the viewport for handling scroll input
func (m *Messages) GetViewport() *viewport.Model {
	return &m.viewport
}

// SetWelcome sets the text shown while there are no messages.
func (m *Messages) SetWelcome(welcome string) {
	m.welcome = welcome
	m.refresh()
}

// SetStreaming shows assistant text that is still arriving.
func (m *Messages) SetStreaming(content string) {
	m.streaming = content
	m.refresh()
}

// FinishTool records the result of the most recent running tool message.
func (m *Messages) FinishTool(result string, ok bool) {
	for i := len(m.messages) - 1; i >= 0; i-- {
		if m.messages[i].Role == "tool" && m.messages[i].State == ToolRunning {
			m.messages[i].Content = result
			m.messages[i].State = ToolFailed
			if ok {
				m.messages[i].State = ToolSucceeded
			}
			break
		}
	}
	m.refresh()
}

func (m *Messages) markdown(s string) string {
	if m.renderer == nil {
		return s
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(out)
}

func (m *Messages) refresh() {
	if len(m.messages) == 0 && m.streaming == "" {
		m.viewport.SetContent(m.welcome)
		return
	}

	t := theme.Current
	width := max(m.width-4, 10)
	body := lipgloss.NewStyle().Foreground(t.Text).PaddingLeft(2).Width(width)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted)

	var sb strings.Builder
	for _, msg := range m.messages {
		switch msg.Role {
		case "user":
			sb.WriteString(lipgloss.NewStyle().Foreground(t.Info).Bold(true).Render("› You") + "\n")
			sb.WriteString(body.Render(msg.Content) + "\n\n")

		case "assistant":
			sb.WriteString(lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◆ Agent") + "\n")
			sb.WriteString(body.Render(m.markdown(msg.Content)) + "\n\n")

		case "tool":
			icon, color := "◐", t.Warning
			switch msg.State {
			case ToolSucceeded:
				icon, color = "✓", t.Success
			case ToolFailed:
				icon, color = "✗", t.Error
			}
			sb.WriteString("  " + lipgloss.NewStyle().Foreground(color).Bold(true).Render(icon) + " " +
				muted.Bold(true).Render(msg.ToolName))
			if msg.ToolArgs != "" {
				sb.WriteString(muted.Render(" " + msg.ToolArgs))
			}
			sb.WriteString("\n")
			if msg.State != ToolRunning && msg.Content != "" {
				result := msg.Content
				if r := []rune(result); len(r) > maxToolResult {
					result = string(r[:maxToolResult]) + "\n⋯ (truncated)"
				}
				sb.WriteString(lipgloss.NewStyle().Foreground(t.TextMuted).PaddingLeft(4).Width(width-6).Render(result) + "\n")
			}
			sb.WriteString("\n")

		case "system":
			sb.WriteString(muted.Italic(true).Render("ℹ "+msg.Content) + "\n\n")

		case "error":
			sb.WriteString(lipgloss.NewStyle().Foreground(t.Error).Render("✗ "+msg.Content) + "\n\n")
		}
	}

	if m.streaming != "" {
		sb.WriteString(lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◆ Agent") + "\n")
		sb.WriteString(body.Render(m.markdown(m.streaming)) + "\n\n")
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

// View renders the messages
func (m *Messages) View() string {
	return m.viewport.View()
}
