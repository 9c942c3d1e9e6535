package cmd

import (
	"bytes"
	"context"
	"testing"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/simonyos/agentcore/internal/agent"
	"github.com/simonyos/agentcore/internal/config"
	"github.com/simonyos/agentcore/internal/tools"
)

func TestPrintStream(t *testing.T) {
	color.NoColor = true

	read := &agent.ToolExecution{Name: "read_file", Args: `{"path":"a.txt"}`, Result: tools.OK("hello"), Line: "✅ read_file: hello"}
	missing := &agent.ToolExecution{Name: "read_file", Args: `{"path":"b.txt"}`, Result: tools.Fail(tools.KindNotFound, "File not found: b.txt"), Line: "❌ read_file: File not found: b.txt"}

	events := make(chan agent.StreamEvent, 8)
	events <- agent.StreamEvent{Type: "start"}
	events <- agent.StreamEvent{Type: "thinking"}
	events <- agent.StreamEvent{Type: "tool_start", Tool: read}
	events <- agent.StreamEvent{Type: "tool_result", Tool: read}
	events <- agent.StreamEvent{Type: "tool_start", Tool: missing}
	events <- agent.StreamEvent{Type: "tool_result", Tool: missing}
	events <- agent.StreamEvent{Type: "done", Result: &agent.TurnResult{Reason: agent.StopFinished, Response: "All done"}}
	close(events)

	var out bytes.Buffer
	require.NoError(t, printStream(&out, events))
	assert.Equal(t, `→ read_file {"path":"a.txt"}
✅ read_file: hello
→ read_file {"path":"b.txt"}
❌ read_file: File not found: b.txt
All done
`, out.String())
}

func TestPrintStream_Cancelled(t *testing.T) {
	color.NoColor = true

	events := make(chan agent.StreamEvent, 2)
	events <- agent.StreamEvent{
		Type:   "error",
		Result: &agent.TurnResult{Reason: agent.StopCancelled, Response: "⏹️ Stopped by user"},
		Error:  context.Canceled,
	}
	close(events)

	var out bytes.Buffer
	assert.ErrorIs(t, printStream(&out, events), context.Canceled)
	assert.Equal(t, "⏹️ Stopped by user\n", out.String())
}

func TestTurnJSON(t *testing.T) {
	got := turnJSON(&agent.TurnResult{
		TurnID:     "t1",
		Reason:     agent.StopAnswered,
		Response:   "ok",
		Iterations: 2,
		ToolCalls: []agent.ToolExecution{
			{ID: "c1", Name: "delete_file", Args: `{"path":".git"}`, Result: tools.Fail(tools.KindPolicy, "protected")},
		},
	})
	assert.Equal(t, "answered", got.Reason)
	require.Len(t, got.ToolCalls, 1)
	assert.Equal(t, toolOutput{
		ID: "c1", Name: "delete_file", Args: `{"path":".git"}`,
		Kind: "policy", Error: "protected",
	}, got.ToolCalls[0])

	empty := turnJSON(&agent.TurnResult{Reason: agent.StopAnswered})
	assert.NotNil(t, empty.ToolCalls)
}

func TestKeyUsage_ListsEveryKey(t *testing.T) {
	usage := keyUsage()
	for _, k := range config.Keys {
		assert.Contains(t, usage, k.Name)
	}
}

func TestPrintResult_FailureKeepsOutput(t *testing.T) {
	var out, errOut bytes.Buffer
	c := &cobra.Command{}
	c.SetOut(&out)
	c.SetErr(&errOut)

	res := tools.Fail(tools.KindFailed, "Command exited with code 1")
	res.Output = "stdout: building\nstderr: missing file\n"
	assert.ErrorIs(t, printResult(c, res), errToolFailed)
	assert.Equal(t, "stdout: building\nstderr: missing file\n", out.String())
	assert.Equal(t, "failed: Command exited with code 1\n", errOut.String())

	out.Reset()
	errOut.Reset()
	require.NoError(t, printResult(c, tools.OK("done\n")))
	assert.Equal(t, "done\n", out.String())
	assert.Empty(t, errOut.String())
}
