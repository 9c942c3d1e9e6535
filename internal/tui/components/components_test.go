package components

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuggestions_Filter(t *testing.T) {
	s := NewSuggestions()

	s.Filter("hello")
	assert.False(t, s.IsVisible())

	s.Filter("/")
	assert.True(t, s.IsVisible())
	assert.Equal(t, "/help", s.GetSelected())

	s.Filter("/re")
	assert.Equal(t, "/reset", s.GetSelected())

	s.Filter("/reset now")
	assert.False(t, s.IsVisible(), "arguments close the list")

	s.Filter("/zzz")
	assert.False(t, s.IsVisible())
}

func TestSuggestions_Navigation(t *testing.T) {
	s := NewSuggestions()
	s.Filter("/")
	s.MoveUp()
	assert.Equal(t, "/help", s.GetSelected())
	for range Commands {
		s.MoveDown()
	}
	assert.Equal(t, Commands[len(Commands)-1].Name, s.GetSelected())
}

func TestMessages_FinishTool(t *testing.T) {
	m := NewMessages(80, 20)
	m.AddMessage(Message{Role: "tool", ToolName: "read_file", State: ToolSucceeded, Content: "old"})
	m.AddMessage(Message{Role: "tool", ToolName: "write_file", State: ToolRunning})
	m.AddMessage(Message{Role: "system", Content: "note"})

	m.FinishTool("disk full", false)
	assert.Equal(t, ToolFailed, m.messages[1].State)
	assert.Equal(t, "disk full", m.messages[1].Content)
	assert.Equal(t, "old", m.messages[0].Content, "finished tools are left alone")
	assert.Contains(t, m.View(), "write_file")

	m.Clear()
	assert.Zero(t, m.Len())
}

func TestEditor_StripsTerminalReplies(t *testing.T) {
	e := NewEditor(80, 5)
	e.SetValue("]11;rgb:1a1a/1b1b/2626 fix the bug")
	assert.Equal(t, "fix the bug", e.Value())
}
