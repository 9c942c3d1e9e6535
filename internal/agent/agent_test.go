package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/simonyos/agentcore/internal/llm"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/tools"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const demo = "demo"

// MockProvider replays scripted responses and records every request.
type MockProvider struct {
	responses []*llm.ToolCallResponse
	// before runs ahead of each response with the request index.
	before func(i int)

	requests [][]llm.Message
	tools    [][]llm.OpenAITool
}

func (m *MockProvider) Generate(context.Context, []llm.Message) (string, error) {
	return "", errors.New("not scripted")
}

func (m *MockProvider) GenerateStream(context.Context, []llm.Message) (<-chan llm.StreamChunk, error) {
	return nil, errors.New("not scripted")
}

func (m *MockProvider) GenerateWithTools(_ context.Context, messages []llm.Message, defs []llm.OpenAITool) (*llm.ToolCallResponse, error) {
	i := len(m.requests)
	m.requests = append(m.requests, append([]llm.Message(nil), messages...))
	m.tools = append(m.tools, defs)
	if m.before != nil {
		m.before(i)
	}
	if i >= len(m.responses) {
		return &llm.ToolCallResponse{Content: "final response"}, nil
	}
	if m.responses[i] == nil {
		return nil, errors.New("provider unavailable")
	}
	return m.responses[i], nil
}

func call(id, name, args string) llm.OpenAIToolCall {
	return llm.OpenAIToolCall{ID: id, Type: "function", Function: llm.OpenAIToolCallFn{Name: name, Arguments: args}}
}

func calls(cs ...llm.OpenAIToolCall) *llm.ToolCallResponse {
	return &llm.ToolCallResponse{ToolCalls: cs, FinishReason: "tool_calls"}
}

func newDriver(t *testing.T, p *MockProvider, opts Options, exec tools.Options) (*Driver, string) {
	t.Helper()
	store, err := project.NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)
	root, err := store.Root(demo)
	require.NoError(t, err)
	exec.Store = store
	opts.Provider = p
	opts.Executor = tools.NewExecutor(exec)
	opts.ProjectID = demo
	d, err := New(opts)
	require.NoError(t, err)
	return d, root
}

// toolMessages decodes the tool-result messages of a request in order.
func toolMessages(t *testing.T, msgs []llm.Message) []tools.ToolResult {
	t.Helper()
	var out []tools.ToolResult
	for _, m := range msgs {
		if m.Role != "tool" {
			continue
		}
		var r tools.ToolResult
		require.NoError(t, json.Unmarshal([]byte(m.Content), &r), m.Content)
		out = append(out, r)
	}
	return out
}

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestNew_SystemPrompt(t *testing.T) {
	p := &MockProvider{}
	d, root := newDriver(t, p, Options{CustomRules: "Prefer tabs."}, tools.Options{})

	history := d.History()
	require.Len(t, history, 1)
	assert.Equal(t, "system", history[0].Role)
	assert.Contains(t, history[0].Content, root)
	assert.Contains(t, history[0].Content, "Prefer tabs.")
	assert.Contains(t, history[0].Content, "at most 25 rounds")

	d, _ = newDriver(t, p, Options{SystemPrompt: "custom"}, tools.Options{})
	assert.Equal(t, "custom", d.History()[0].Content)
}

func TestChat_Answer(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{{Content: "Hello!"}}}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	res, err := d.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Equal(t, StopAnswered, res.Reason)
	assert.Equal(t, "Hello!", res.Response)
	assert.Equal(t, 1, res.Iterations)
	assert.NotEmpty(t, res.TurnID)
	assert.Nil(t, d.State())

	history := d.History()
	require.Len(t, history, 3)
	assert.Equal(t, "user", history[1].Role)
	assert.Equal(t, "assistant", history[2].Role)
}

func TestChat_SequentialExecution(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{
		calls(
			call("c1", "write_file", `{"path":"notes.txt","content":"hello"}`),
			call("c2", "read_file", `{"path":"notes.txt"}`),
		),
		{Content: "done"},
	}}
	d, root := newDriver(t, p, Options{}, tools.Options{})

	res, err := d.Chat(context.Background(), "write then read")
	require.NoError(t, err)
	assert.Equal(t, StopAnswered, res.Reason)
	assert.Equal(t, 2, res.Iterations)

	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, "write_file", res.ToolCalls[0].Name)
	assert.Equal(t, "read_file", res.ToolCalls[1].Name)
	assert.Equal(t, "hello", res.ToolCalls[1].Result.Output, "read sees the earlier write")
	assert.Equal(t, "✅ read_file: hello", res.ToolCalls[1].Line)

	data, err := os.ReadFile(filepath.Join(root, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	// every result is fed back, in order, before the next request
	require.Len(t, p.requests, 2)
	second := p.requests[1]
	var ids []string
	for _, m := range second {
		if m.Role == "tool" {
			ids = append(ids, m.ToolCallID)
		}
	}
	assert.Equal(t, []string{"c1", "c2"}, ids)
}

func TestChat_FailureDoesNotAbortBatch(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{
		calls(
			call("c1", "read_file", `{"path":"missing.txt"}`),
			call("c2", "unknown_tool_xyz", `{}`),
			call("c3", "save_memory", `{"key":"k","value":"v"}`),
		),
	}}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	res, err := d.Chat(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 3)
	assert.False(t, res.ToolCalls[0].Result.Success)
	assert.True(t, strings.HasPrefix(res.ToolCalls[0].Line, "❌ read_file: "), res.ToolCalls[0].Line)
	assert.Equal(t, "❌ unknown_tool_xyz: Unknown tool: unknown_tool_xyz", res.ToolCalls[1].Line)
	assert.True(t, res.ToolCalls[2].Result.Success)

	fed := toolMessages(t, p.requests[1])
	require.Len(t, fed, 3)
	assert.False(t, fed[0].Success)
	assert.NotEmpty(t, fed[0].Error)
	assert.True(t, fed[2].Success)
}

func TestChat_FinishAndAsk(t *testing.T) {
	tests := []struct {
		name   string
		call   llm.OpenAIToolCall
		reason StopReason
		want   string
	}{
		{"finish", call("c1", "finish_task", `{"summary":"All done"}`), StopFinished, "All done"},
		{"ask", call("c1", "ask_user", `{"question":"Which file?"}`), StopAskUser, "Which file?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProvider{responses: []*llm.ToolCallResponse{
				calls(tt.call, call("c2", "save_memory", `{"key":"after","value":"x"}`)),
			}}
			d, _ := newDriver(t, p, Options{}, tools.Options{})

			res, err := d.Chat(context.Background(), "go")
			require.NoError(t, err)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.want, res.Response)
			assert.Len(t, p.requests, 1, "no further model round")
			require.Len(t, res.ToolCalls, 2, "the rest of the batch still runs")
			assert.True(t, res.ToolCalls[1].Result.Success)
		})
	}
}

func TestChat_IterationCap(t *testing.T) {
	loop := calls(call("c1", "list_memories", `{}`))
	p := &MockProvider{responses: []*llm.ToolCallResponse{loop, loop, loop, loop, loop}}
	d, _ := newDriver(t, p, Options{MaxIterations: 3}, tools.Options{})

	res, err := d.Chat(context.Background(), "loop forever")
	require.NoError(t, err)
	assert.Equal(t, StopMaxIterations, res.Reason)
	assert.Equal(t, "⚠️ Stopped after 3 iterations", res.Response)
	assert.Equal(t, res.Response, res.Transcript[len(res.Transcript)-1])
	assert.Equal(t, 3, res.Iterations)
	assert.Len(t, p.requests, 3)
}

func TestChat_CancelBetweenCalls(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{
		calls(
			call("c1", "delete_file", `{"path":"old.txt"}`),
			call("c2", "save_memory", `{"key":"k","value":"v"}`),
		),
	}}
	var d *Driver
	confirm := func(string) bool {
		// the user stops the turn while the first call is in flight
		assert.True(t, d.Abort("changed my mind"))
		return true
	}
	d, root := newDriver(t, p, Options{}, tools.Options{Confirm: confirm})
	require.NoError(t, os.WriteFile(filepath.Join(root, "old.txt"), []byte("x"), 0o644))

	res, err := d.Chat(context.Background(), "clean up")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Equal(t, "⏹️ Stopped by user: changed my mind", res.Response)

	require.Len(t, res.ToolCalls, 1, "the in-flight call completes")
	assert.True(t, res.ToolCalls[0].Result.Success)
	_, statErr := os.Stat(filepath.Join(root, "old.txt"))
	assert.True(t, os.IsNotExist(statErr))

	// the skipped call is still answered so the history stays valid
	history := d.History()
	fed := toolMessages(t, history)
	require.Len(t, fed, 2)
	assert.False(t, fed[1].Success)
	assert.Contains(t, fed[1].Error, "Cancelled")
	assert.False(t, d.Abort("idle"))
}

func TestChat_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &MockProvider{
		responses: []*llm.ToolCallResponse{calls(call("c1", "save_memory", `{"key":"k","value":"v"}`))},
		before:    func(int) { cancel() },
	}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	res, err := d.Chat(ctx, "go")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, StopCancelled, res.Reason)
	assert.Empty(t, res.ToolCalls)
}

func TestChat_RepairArguments(t *testing.T) {
	broken := `{"key": "k", "value": "v",}`
	script := func() *MockProvider {
		return &MockProvider{responses: []*llm.ToolCallResponse{calls(call("c1", "save_memory", broken))}}
	}

	d, _ := newDriver(t, script(), Options{}, tools.Options{})
	res, err := d.Chat(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.False(t, res.ToolCalls[0].Result.Success)
	assert.Equal(t, tools.KindValidation, res.ToolCalls[0].Result.Kind)
	assert.Contains(t, res.ToolCalls[0].Result.Error, "Invalid JSON arguments")

	d, _ = newDriver(t, script(), Options{RepairArguments: true}, tools.Options{})
	res, err = d.Chat(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.True(t, res.ToolCalls[0].Result.Success, res.ToolCalls[0].Result.Error)
	assert.True(t, json.Valid([]byte(res.ToolCalls[0].Args)))
}

func TestChat_ToolOutputCapped(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{calls(call("c1", "read_file", `{"path":"big.txt"}`))}}
	d, root := newDriver(t, p, Options{MaxToolOutput: 10, PreviewLength: 5}, tools.Options{})
	big := strings.Repeat("x", 100)
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.txt"), []byte(big), 0o644))

	res, err := d.Chat(context.Background(), "read")
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	assert.Equal(t, big, res.ToolCalls[0].Result.Output, "the full result stays available")
	assert.Equal(t, "✅ read_file: "+tools.Preview(big, 5), res.ToolCalls[0].Line)

	fed := toolMessages(t, p.requests[1])
	require.Len(t, fed, 1)
	assert.Equal(t, strings.Repeat("x", 10)+"\n... [truncated, 90 more characters]", fed[0].Output)
}

func TestChat_BasicOnly(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{calls(
		call("c1", "write_file", `{"path":"a.txt","content":"x"}`),
		call("c2", "read_file", `{"path":"a.txt"}`),
	)}}
	d, root := newDriver(t, p, Options{BasicOnly: true}, tools.Options{})

	res, err := d.Chat(context.Background(), "try to write")
	require.NoError(t, err)

	basic := tools.DefaultRegistry().Basic()
	require.Len(t, p.tools[0], len(basic.List()))
	for _, def := range p.tools[0] {
		_, ok := basic.ByName(def.Function.Name)
		assert.True(t, ok, def.Function.Name)
	}

	require.Len(t, res.ToolCalls, 2)
	assert.Equal(t, tools.KindPolicy, res.ToolCalls[0].Result.Kind)
	assert.Equal(t, "❌ write_file: Tool write_file is not available in read-only mode", res.ToolCalls[0].Line)
	_, statErr := os.Stat(filepath.Join(root, "a.txt"))
	assert.True(t, os.IsNotExist(statErr))
	assert.Contains(t, d.History()[0].Content, "read-only mode")
}

func TestChat_BasicOnlyStopTools(t *testing.T) {
	tests := []struct {
		name   string
		call   llm.OpenAIToolCall
		reason StopReason
		want   string
	}{
		{"finish", call("c1", "finish_task", `{"summary":"Looked around"}`), StopFinished, "Looked around"},
		{"ask", call("c1", "ask_user", `{"question":"Which package?"}`), StopAskUser, "Which package?"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &MockProvider{responses: []*llm.ToolCallResponse{calls(tt.call)}}
			d, _ := newDriver(t, p, Options{BasicOnly: true}, tools.Options{})

			res, err := d.Chat(context.Background(), "look only")
			require.NoError(t, err)
			assert.Equal(t, tt.reason, res.Reason)
			assert.Equal(t, tt.want, res.Response)
			require.Len(t, res.ToolCalls, 1)
			assert.True(t, res.ToolCalls[0].Result.Success, res.ToolCalls[0].Result.Error)

			var advertised []string
			for _, def := range p.tools[0] {
				advertised = append(advertised, def.Function.Name)
			}
			assert.Contains(t, advertised, tt.call.Function.Name)
		})
	}
}

func TestChat_AssignsMissingCallIDs(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{calls(
		llm.OpenAIToolCall{Function: llm.OpenAIToolCallFn{Name: "list_memories"}},
	)}}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	res, err := d.Chat(context.Background(), "go")
	require.NoError(t, err)
	require.Len(t, res.ToolCalls, 1)
	id := res.ToolCalls[0].ID
	assert.True(t, strings.HasPrefix(id, "call_"), id)

	var assistant, tool llm.Message
	for _, m := range p.requests[1] {
		switch {
		case m.Role == "assistant" && len(m.ToolCalls) > 0:
			assistant = m
		case m.Role == "tool":
			tool = m
		}
	}
	assert.Equal(t, id, assistant.ToolCalls[0].ID)
	assert.Equal(t, "function", assistant.ToolCalls[0].Type)
	assert.Equal(t, id, tool.ToolCallID)
}

func TestChat_ProviderError(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{nil}}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	res, err := d.Chat(context.Background(), "go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider unavailable")
	assert.Equal(t, StopError, res.Reason)
}

func TestReset(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{{Content: "one"}}}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	_, err := d.Chat(context.Background(), "hi")
	require.NoError(t, err)
	assert.Len(t, d.History(), 3)
	d.Reset()
	assert.Len(t, d.History(), 1)
}

func TestChatStream(t *testing.T) {
	p := &MockProvider{responses: []*llm.ToolCallResponse{
		calls(call("c1", "save_memory", `{"key":"k","value":"v"}`)),
		{Content: "saved"},
	}}
	d, _ := newDriver(t, p, Options{}, tools.Options{})

	var types []string
	var last StreamEvent
	for ev := range d.ChatStream(context.Background(), "remember") {
		types = append(types, ev.Type)
		last = ev
	}
	assert.Equal(t, []string{"start", "thinking", "tool_start", "tool_result", "thinking", "text", "done"}, types)
	require.NotNil(t, last.Result)
	assert.Equal(t, "saved", last.Text)
	assert.Equal(t, StopAnswered, last.Result.Reason)
}

func TestTaskState(t *testing.T) {
	ts := NewTaskState("t1", 2)
	assert.False(t, ts.HasReachedMaxIterations())
	ts.IncrementIteration()
	ts.IncrementIteration()
	assert.True(t, ts.HasReachedMaxIterations())

	ts.RecordTool("read_file", true)
	ts.RecordTool("write_file", false)
	summary := ts.Summary()
	assert.Equal(t, 2, summary["tool_calls"])
	assert.Equal(t, 1, summary["tool_failures"])

	cancelled := false
	ts.CancelContext = func() { cancelled = true }
	ts.RequestAbort("stop")
	assert.True(t, ts.IsAborted())
	assert.True(t, cancelled)
	assert.Equal(t, "stop", ts.GetAbortReason())

	unbounded := NewTaskState("t2", 0)
	unbounded.IncrementIteration()
	assert.False(t, unbounded.HasReachedMaxIterations())
}
