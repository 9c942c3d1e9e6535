// Package tui is the interactive terminal front-end for the agent driver.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simonyos/agentcore/internal/agent"
	"github.com/simonyos/agentcore/internal/tools"
	"github.com/simonyos/agentcore/internal/tui/components"
	"github.com/simonyos/agentcore/internal/tui/theme"
)

// Version is shown in the header.
var Version = "dev"

const (
	headerHeight = 2
	statusHeight = 2
	editorHeight = 5
)

// Options configures the TUI.
type Options struct {
	Driver   *agent.Driver
	Model    string
	Project  string
	Root     string
	ReadOnly bool
	// Tools is the text shown by /tools.
	Tools string
	// Confirmer, when set, routes tool confirmations into the TUI.
	Confirmer *Confirmer
	Theme     string
}

type streamStartedMsg struct {
	events <-chan agent.StreamEvent
}

type streamEventMsg struct {
	event agent.StreamEvent
}

type streamClosedMsg struct{}

type confirmMsg struct {
	req confirmRequest
}

// Model is the main TUI model
type Model struct {
	driver    *agent.Driver
	confirmer *Confirmer
	tools     string

	header      *components.Header
	messages    *components.Messages
	editor      *components.Editor
	status      *components.Status
	help        *components.HelpDialog
	suggestions *components.Suggestions
	spinner     spinner.Model

	width    int
	height   int
	ready    bool
	thinking bool
	showHelp bool
	events   <-chan agent.StreamEvent
	pending  *confirmRequest

	rounds, calls, failures int
}

// New creates a new TUI model
func New(opts Options) Model {
	theme.Current = theme.ByName(opts.Theme)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		driver:      opts.Driver,
		confirmer:   opts.Confirmer,
		tools:       opts.Tools,
		header:      components.NewHeader(80, Version, opts.Project, opts.Root, opts.ReadOnly),
		status:      components.NewStatus(80, opts.Model),
		help:        components.NewHelpDialog(),
		suggestions: components.NewSuggestions(),
		spinner:     sp,
	}
}

// Run starts the program and blocks until the user quits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}

func welcome() string {
	t := theme.Current
	title := lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("◆ agentcore")
	tips := lipgloss.NewStyle().Foreground(t.TextMuted).Render(strings.Join([]string{
		"Describe a change and the agent will read, edit and check the project.",
		"Every tool call is shown as it runs. Esc stops the turn after the current call.",
		"Type /help for commands.",
	}, "\n"))
	return "\n" + title + "\n\n" + tips + "\n"
}

// Init initializes the TUI
func (m Model) Init() tea.Cmd {
	if m.confirmer != nil {
		return waitForConfirm(m.confirmer)
	}
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.pending != nil {
			return m.answer(msg.String())
		}
		if m.showHelp {
			m.showHelp = false
			return m, nil
		}
		if !m.ready {
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.String() {
		case "ctrl+c":
			m.stop("quit")
			return m, tea.Quit

		case "ctrl+l":
			m.messages.Clear()
			return m, nil

		case "esc":
			if m.suggestions.IsVisible() {
				m.suggestions.Hide()
				return m, nil
			}
			m.stop("stopped from the terminal")
			return m, nil

		case "tab":
			if m.suggestions.IsVisible() {
				if selected := m.suggestions.GetSelected(); selected != "" {
					m.editor.SetValue(selected)
					m.suggestions.Hide()
				}
				return m, nil
			}

		case "up":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveUp()
				return m, nil
			}

		case "down":
			if m.suggestions.IsVisible() {
				m.suggestions.MoveDown()
				return m, nil
			}

		case "enter":
			if m.suggestions.IsVisible() {
				if selected := m.suggestions.GetSelected(); selected != "" {
					m.editor.Reset()
					m.suggestions.Hide()
					return m.handleCommand(selected)
				}
			}
			input := m.editor.Value()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				m.editor.Reset()
				m.suggestions.Hide()
				return m.handleCommand(input)
			}
			if m.thinking {
				return m, nil
			}
			m.editor.Reset()
			m.messages.AddMessage(components.Message{Role: "user", Content: input})
			m.thinking = true
			m.rounds, m.calls, m.failures = 0, 0, 0
			m.status.SetThinking(true)
			m.status.SetTurn(0, 0, 0)
			return m, tea.Batch(m.spinner.Tick, m.send(input))

		case "pgup", "pgdown":
			vp := m.messages.GetViewport()
			var cmd tea.Cmd
			*vp, cmd = vp.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		messagesHeight := max(msg.Height-headerHeight-statusHeight-editorHeight, 1)
		if !m.ready {
			m.messages = components.NewMessages(msg.Width, messagesHeight)
			m.messages.SetWelcome(welcome())
			m.editor = components.NewEditor(msg.Width, editorHeight)
			m.ready = true
		} else {
			m.messages.SetSize(msg.Width, messagesHeight)
			m.editor.SetSize(msg.Width, editorHeight)
		}
		m.header.SetWidth(msg.Width)
		m.status.SetWidth(msg.Width)

	case spinner.TickMsg:
		if m.thinking {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case streamStartedMsg:
		m.events = msg.events
		cmds = append(cmds, next(m.events))

	case streamEventMsg:
		m.handleEvent(msg.event)
		if m.events != nil {
			cmds = append(cmds, next(m.events))
		}

	case streamClosedMsg:
		m.events = nil
		m.thinking = false
		m.status.SetThinking(false)

	case confirmMsg:
		m.pending = &msg.req
		m.status.Prompt = msg.req.prompt
		return m, nil
	}

	if m.ready && !m.thinking {
		if _, ok := msg.(tea.KeyMsg); ok {
			var cmd tea.Cmd
			m.editor, cmd = m.editor.Update(msg)
			cmds = append(cmds, cmd)
			m.suggestions.Filter(m.editor.Value())
		}
	}

	return m, tea.Batch(cmds...)
}

func (m *Model) handleEvent(ev agent.StreamEvent) {
	switch ev.Type {
	case "thinking":
		m.rounds++
	case "text":
		m.messages.AddMessage(components.Message{Role: "assistant", Content: ev.Text})
	case "tool_start":
		m.messages.AddMessage(components.Message{
			Role:     "tool",
			ToolName: ev.Tool.Name,
			ToolArgs: tools.Preview(ev.Tool.Args, 80),
			State:    components.ToolRunning,
		})
	case "tool_result":
		m.calls++
		res := ev.Tool.Result
		if res.Success {
			m.messages.FinishTool(res.Output, true)
		} else {
			m.failures++
			m.messages.FinishTool(res.Error, false)
		}
	case "done":
		// finish_task and ask_user answer through a tool result
		if r := ev.Result; r != nil && (r.Reason == agent.StopFinished || r.Reason == agent.StopAskUser) {
			m.messages.AddMessage(components.Message{Role: "assistant", Content: r.Response})
		}
	case "error":
		if r := ev.Result; r != nil && r.Reason == agent.StopCancelled {
			m.messages.AddMessage(components.Message{Role: "system", Content: r.Response})
		} else {
			m.messages.AddMessage(components.Message{Role: "error", Content: ev.Error.Error()})
		}
	}
	m.status.SetTurn(m.rounds, m.calls, m.failures)
}

func (m *Model) stop(reason string) {
	if m.thinking && m.driver.Abort(reason) {
		m.messages.AddMessage(components.Message{Role: "system", Content: "Stopping after the current tool call..."})
	}
}

func (m Model) answer(key string) (tea.Model, tea.Cmd) {
	var ok bool
	switch strings.ToLower(key) {
	case "y", "enter":
		ok = true
	case "n", "esc":
	default:
		return m, nil
	}
	m.pending.reply <- ok
	m.pending = nil
	m.status.Prompt = ""
	return m, waitForConfirm(m.confirmer)
}

func (m *Model) send(content string) tea.Cmd {
	driver := m.driver
	return func() tea.Msg {
		return streamStartedMsg{events: driver.ChatStream(context.Background(), content)}
	}
}

func next(events <-chan agent.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return streamClosedMsg{}
		}
		return streamEventMsg{event: ev}
	}
}

// handleCommand processes slash commands
func (m Model) handleCommand(input string) (tea.Model, tea.Cmd) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return m, nil
	}

	switch cmd := strings.ToLower(parts[0]); cmd {
	case "/help":
		m.showHelp = true

	case "/clear":
		m.messages.Clear()

	case "/reset":
		if m.thinking {
			m.messages.AddMessage(components.Message{Role: "error", Content: "Stop the running turn first."})
			break
		}
		m.messages.Clear()
		m.driver.Reset()
		m.messages.AddMessage(components.Message{Role: "system", Content: "Conversation reset."})

	case "/tools":
		m.messages.AddMessage(components.Message{Role: "system", Content: m.tools})

	case "/stop":
		m.stop("stopped from the terminal")

	case "/quit", "/exit", "/q":
		m.stop("quit")
		return m, tea.Quit

	default:
		m.messages.AddMessage(components.Message{
			Role:    "error",
			Content: fmt.Sprintf("Unknown command: %s\nType /help for available commands.", cmd),
		})
	}
	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	t := theme.Current
	messagesHeight := max(m.height-headerHeight-statusHeight-editorHeight, 1)

	body := m.messages.View()
	if m.thinking {
		body += "\n" + lipgloss.NewStyle().Foreground(t.Primary).Render(m.spinner.View()+" Working...")
	}
	sections := []string{m.header.View(), lipgloss.NewStyle().Height(messagesHeight).Render(body)}
	if m.suggestions.IsVisible() {
		m.suggestions.SetWidth(m.width)
		sections = append(sections, m.suggestions.View())
	}
	sections = append(sections, m.editor.View(), m.status.View())
	view := lipgloss.JoinVertical(lipgloss.Left, sections...)

	if m.showHelp {
		view = components.PlaceOverlay(m.help.View(), m.width, m.height)
	}
	return lipgloss.NewStyle().
		Background(t.Background).
		Width(m.width).
		Height(m.height).
		Render(view)
}
