// Package agent drives a conversation between a tool-calling model and the
// tool executor.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/simonyos/agentcore/internal/llm"
	"github.com/simonyos/agentcore/internal/logging"
	"github.com/simonyos/agentcore/internal/metrics"
	"github.com/simonyos/agentcore/internal/prompts"
	"github.com/simonyos/agentcore/internal/tools"
)

const (
	DefaultMaxIterations = 25
	DefaultMaxToolOutput = 20000

	finishTool  = "finish_task"
	askUserTool = "ask_user"
)

// StopReason says why a turn ended.
type StopReason string

const (
	StopAnswered      StopReason = "answered"
	StopFinished      StopReason = "finished"
	StopAskUser       StopReason = "ask_user"
	StopMaxIterations StopReason = "max_iterations"
	StopCancelled     StopReason = "cancelled"
	StopError         StopReason = "error"
)

// ToolExecution records a single tool call and its result
type ToolExecution struct {
	ID     string
	Name   string
	Args   string
	Result tools.ToolResult
	// Line is the transcript annotation for the call.
	Line string
}

// TurnResult is the outcome of one user message.
type TurnResult struct {
	TurnID     string
	Response   string
	Reason     StopReason
	Iterations int
	ToolCalls  []ToolExecution
	Transcript []string
}

// StreamEvent represents events during streaming chat
type StreamEvent struct {
	Type string // "start", "thinking", "text", "tool_start", "tool_result", "done", "error"

	Text string

	Tool *ToolExecution

	Result *TurnResult

	Error error
}

// Options configures a Driver. Provider and Executor are required.
type Options struct {
	Provider  llm.ToolProvider
	Executor  *tools.Executor
	ProjectID string

	MaxIterations int
	MaxToolOutput int
	PreviewLength int
	// BasicOnly advertises and allows only the read-only tool set.
	BasicOnly bool
	// RepairArguments fixes malformed tool-argument JSON before execution.
	RepairArguments bool
	// SystemPrompt replaces the generated prompt when set.
	SystemPrompt string
	CustomRules  string

	Metrics metrics.Recorder
	Log     *zap.Logger
}

// Driver runs the tool-calling loop for one project. Turns are serialized:
// Chat blocks while another turn is running.
type Driver struct {
	provider  llm.ToolProvider
	executor  *tools.Executor
	projectID string
	registry  *tools.Registry
	tools     []llm.OpenAITool

	maxIterations int
	maxToolOutput int
	previewLength int
	repair        bool

	metrics metrics.Recorder
	log     *zap.Logger

	turnMu   sync.Mutex
	messages []llm.Message

	stateMu sync.Mutex
	state   *TaskState
}

// New creates a driver and its system prompt.
func New(opts Options) (*Driver, error) {
	if opts.Provider == nil || opts.Executor == nil {
		return nil, errors.New("agent: provider and executor are required")
	}
	d := &Driver{
		provider:      opts.Provider,
		executor:      opts.Executor,
		projectID:     opts.ProjectID,
		registry:      opts.Executor.Registry(),
		maxIterations: opts.MaxIterations,
		maxToolOutput: opts.MaxToolOutput,
		previewLength: opts.PreviewLength,
		repair:        opts.RepairArguments,
		metrics:       opts.Metrics,
		log:           logging.OrNop(opts.Log),
	}
	if d.maxIterations <= 0 {
		d.maxIterations = DefaultMaxIterations
	}
	if d.maxToolOutput <= 0 {
		d.maxToolOutput = DefaultMaxToolOutput
	}
	if d.previewLength <= 0 {
		d.previewLength = tools.PreviewLength
	}
	if d.metrics == nil {
		d.metrics = metrics.Nop{}
	}
	if opts.BasicOnly {
		d.registry = d.registry.Basic()
	}
	d.tools = d.registry.OpenAITools()

	system := opts.SystemPrompt
	if system == "" {
		root, err := opts.Executor.Root(opts.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("agent: project %q: %w", opts.ProjectID, err)
		}
		system = prompts.BuildSystemPrompt(opts.ProjectID, root, d.registry.Names(), opts.BasicOnly, d.maxIterations, opts.CustomRules)
	}
	d.messages = []llm.Message{{Role: "system", Content: system}}
	return d, nil
}

// History returns a copy of the conversation history
func (d *Driver) History() []llm.Message {
	d.turnMu.Lock()
	defer d.turnMu.Unlock()
	return append([]llm.Message(nil), d.messages...)
}

// Reset clears the conversation history (keeps system prompt)
func (d *Driver) Reset() {
	d.turnMu.Lock()
	defer d.turnMu.Unlock()
	d.messages = d.messages[:1]
}

// Abort stops the running turn after its current tool call. It reports
// whether a turn was running.
func (d *Driver) Abort(reason string) bool {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	if d.state == nil {
		return false
	}
	d.state.RequestAbort(reason)
	return true
}

// State returns the running turn's state, or nil between turns.
func (d *Driver) State() *TaskState {
	d.stateMu.Lock()
	defer d.stateMu.Unlock()
	return d.state
}

// Chat runs one turn and returns its result.
func (d *Driver) Chat(ctx context.Context, userMessage string) (*TurnResult, error) {
	return d.run(ctx, userMessage, func(StreamEvent) {})
}

// ChatStream runs one turn in the background and reports its progress.
// The channel closes after the "done" or "error" event; callers must drain
// it.
func (d *Driver) ChatStream(ctx context.Context, userMessage string) <-chan StreamEvent {
	events := make(chan StreamEvent, 16)
	go func() {
		defer close(events)
		emit := func(ev StreamEvent) { events <- ev }
		emit(StreamEvent{Type: "start"})
		res, err := d.run(ctx, userMessage, emit)
		if err != nil {
			emit(StreamEvent{Type: "error", Error: err, Result: res})
			return
		}
		emit(StreamEvent{Type: "done", Text: res.Response, Result: res})
	}()
	return events
}

func (d *Driver) run(ctx context.Context, userMessage string, emit func(StreamEvent)) (res *TurnResult, err error) {
	d.turnMu.Lock()
	defer d.turnMu.Unlock()

	turnID := uuid.NewString()
	ctx, cancel := context.WithCancel(tools.WithTurn(ctx, turnID))
	defer cancel()

	state := NewTaskState(turnID, d.maxIterations)
	state.CancelContext = cancel
	d.stateMu.Lock()
	d.state = state
	d.stateMu.Unlock()

	res = &TurnResult{TurnID: turnID}
	log := d.log.With(zap.String("turn", turnID), zap.String("project", d.projectID))
	defer func() {
		d.stateMu.Lock()
		d.state = nil
		d.stateMu.Unlock()
		res.Iterations = state.Iterations()
		d.metrics.TurnEnded(string(res.Reason), res.Iterations)
		log.Info("turn ended",
			zap.String("reason", string(res.Reason)),
			zap.Int("iterations", res.Iterations),
			zap.Int("tool_calls", len(res.ToolCalls)),
			zap.Duration("duration", state.Duration()),
		)
	}()

	d.messages = append(d.messages, llm.Message{Role: "user", Content: userMessage})

	for {
		if state.HasReachedMaxIterations() {
			res.Reason = StopMaxIterations
			res.Response = fmt.Sprintf("⚠️ Stopped after %d iterations", d.maxIterations)
			res.Transcript = append(res.Transcript, res.Response)
			emit(StreamEvent{Type: "text", Text: res.Response})
			return res, nil
		}
		if ctx.Err() != nil {
			return d.cancelled(res, state)
		}

		n := state.IncrementIteration()
		emit(StreamEvent{Type: "thinking"})
		log.Debug("requesting completion", zap.Int("iteration", n))
		resp, err := d.provider.GenerateWithTools(ctx, d.messages, d.tools)
		if err != nil {
			if ctx.Err() != nil {
				return d.cancelled(res, state)
			}
			res.Reason = StopError
			return res, fmt.Errorf("generate: %w", err)
		}

		calls := resp.ToolCalls
		for i := range calls {
			if calls[i].ID == "" {
				calls[i].ID = "call_" + uuid.NewString()
			}
			if calls[i].Type == "" {
				calls[i].Type = "function"
			}
		}
		d.messages = append(d.messages, llm.Message{Role: "assistant", Content: resp.Content, ToolCalls: calls})
		if resp.Content != "" {
			res.Transcript = append(res.Transcript, resp.Content)
			emit(StreamEvent{Type: "text", Text: resp.Content})
		}
		if len(calls) == 0 {
			res.Reason = StopAnswered
			res.Response = resp.Content
			return res, nil
		}

		var stop StopReason
		for i, tc := range calls {
			if ctx.Err() != nil {
				d.skipRemaining(calls[i:])
				return d.cancelled(res, state)
			}
			emit(StreamEvent{Type: "tool_start", Tool: &ToolExecution{ID: tc.ID, Name: tc.Function.Name, Args: tc.Function.Arguments}})
			exec := d.execute(ctx, tc)
			state.RecordTool(exec.Name, exec.Result.Success)
			res.ToolCalls = append(res.ToolCalls, exec)
			res.Transcript = append(res.Transcript, exec.Line)
			emit(StreamEvent{Type: "tool_result", Tool: &exec})

			d.messages = append(d.messages, llm.Message{
				Role:       "tool",
				Content:    d.feedback(exec.Result),
				ToolCallID: tc.ID,
				Name:       tc.Function.Name,
			})

			if !exec.Result.Success || stop != "" {
				continue
			}
			switch exec.Name {
			case finishTool:
				stop, res.Response = StopFinished, exec.Result.Output
			case askUserTool:
				stop, res.Response = StopAskUser, exec.Result.Output
			}
		}
		if stop != "" {
			res.Reason = stop
			return res, nil
		}
	}
}

func (d *Driver) cancelled(res *TurnResult, state *TaskState) (*TurnResult, error) {
	res.Reason = StopCancelled
	msg := "⏹️ Stopped by user"
	if reason := state.GetAbortReason(); reason != "" {
		msg += ": " + reason
	}
	res.Response = msg
	res.Transcript = append(res.Transcript, msg)
	return res, context.Canceled
}

// skipRemaining answers tool calls that will not run, so the history stays
// valid for the next request.
func (d *Driver) skipRemaining(calls []llm.OpenAIToolCall) {
	skipped := tools.Fail(tools.KindPolicy, "Cancelled by user before this call ran")
	for _, tc := range calls {
		d.messages = append(d.messages, llm.Message{
			Role:       "tool",
			Content:    d.feedback(skipped),
			ToolCallID: tc.ID,
			Name:       tc.Function.Name,
		})
	}
}

// execute runs one call to completion even if the turn is cancelled
// meanwhile.
func (d *Driver) execute(ctx context.Context, tc llm.OpenAIToolCall) ToolExecution {
	name, args := tc.Function.Name, tc.Function.Arguments
	if d.repair && args != "" && !json.Valid([]byte(args)) {
		if fixed, err := jsonrepair.JSONRepair(args); err == nil {
			d.log.Debug("repaired tool arguments", zap.String("tool", name))
			args = fixed
		} else {
			d.log.Debug("tool argument repair failed", zap.String("tool", name), zap.Error(err))
		}
	}

	var result tools.ToolResult
	if _, ok := d.registry.ByName(name); !ok {
		if _, known := d.executor.Registry().ByName(name); known {
			result = tools.Fail(tools.KindPolicy, fmt.Sprintf("Tool %s is not available in read-only mode", name))
		}
	}
	if result.Error == "" {
		result = d.executor.Execute(context.WithoutCancel(ctx), d.projectID, name, args)
	}

	exec := ToolExecution{ID: tc.ID, Name: name, Args: args, Result: result}
	if result.Success {
		exec.Line = fmt.Sprintf("✅ %s: %s", name, tools.Preview(result.Output, d.previewLength))
	} else {
		exec.Line = fmt.Sprintf("❌ %s: %s", name, result.Error)
	}
	return exec
}

// feedback is the tool message content: the result's JSON form with the
// output capped.
func (d *Driver) feedback(r tools.ToolResult) string {
	r.Output = capOutput(r.Output, d.maxToolOutput)
	data, err := json.Marshal(r)
	if err != nil {
		return r.Error
	}
	return string(data)
}

func capOutput(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return fmt.Sprintf("%s\n... [truncated, %d more characters]", string(r[:n]), len(r)-n)
}
