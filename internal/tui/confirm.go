package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type confirmRequest struct {
	prompt string
	reply  chan bool
}

// Confirmer hands confirmation questions from tool goroutines to the TUI
// and blocks until the user answers.
type Confirmer struct {
	requests chan confirmRequest
}

// NewConfirmer returns a Confirmer with no pending questions.
func NewConfirmer() *Confirmer {
	return &Confirmer{requests: make(chan confirmRequest)}
}

// Confirm asks the question and reports the answer. It has the shape of
// tools.ConfirmFunc and shell.ConfirmFunc.
func (c *Confirmer) Confirm(prompt string) bool {
	reply := make(chan bool)
	c.requests <- confirmRequest{prompt: prompt, reply: reply}
	return <-reply
}

func waitForConfirm(c *Confirmer) tea.Cmd {
	return func() tea.Msg {
		return confirmMsg{req: <-c.requests}
	}
}
