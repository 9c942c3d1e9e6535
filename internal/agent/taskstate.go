package agent

import (
	"context"
	"sync"
	"time"
)

// TaskState tracks one turn of the driver: its iterations, the tool calls
// it made, and whether the user stopped it. It is safe for concurrent use
// so that a UI goroutine can abort a running turn.
type TaskState struct {
	mu sync.RWMutex

	ID        string
	StartedAt time.Time

	Abort         bool
	AbortReason   string
	CancelContext context.CancelFunc

	CurrentIteration int
	MaxIterations    int

	ToolCalls    int
	ToolFailures int
	LastTool     string
}

// NewTaskState creates a new task state with defaults
func NewTaskState(id string, maxIterations int) *TaskState {
	return &TaskState{
		ID:            id,
		StartedAt:     time.Now(),
		MaxIterations: maxIterations,
	}
}

// RequestAbort sets the abort flag and cancels the turn's context. The
// tool call in flight, if any, still completes.
func (ts *TaskState) RequestAbort(reason string) {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	ts.Abort = true
	ts.AbortReason = reason

	if ts.CancelContext != nil {
		ts.CancelContext()
	}
}

// IsAborted checks if the task has been aborted
func (ts *TaskState) IsAborted() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.Abort
}

// GetAbortReason returns the abort reason
func (ts *TaskState) GetAbortReason() string {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.AbortReason
}

// IncrementIteration increments and returns the current iteration count
func (ts *TaskState) IncrementIteration() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.CurrentIteration++
	return ts.CurrentIteration
}

// Iterations returns how many model rounds have started.
func (ts *TaskState) Iterations() int {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.CurrentIteration
}

// HasReachedMaxIterations checks if max iterations have been reached
func (ts *TaskState) HasReachedMaxIterations() bool {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return ts.MaxIterations > 0 && ts.CurrentIteration >= ts.MaxIterations
}

// RecordTool counts a finished tool call.
func (ts *TaskState) RecordTool(name string, success bool) {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	ts.ToolCalls++
	if !success {
		ts.ToolFailures++
	}
	ts.LastTool = name
}

// Duration returns how long the task has been running
func (ts *TaskState) Duration() time.Duration {
	ts.mu.RLock()
	defer ts.mu.RUnlock()
	return time.Since(ts.StartedAt)
}

// Summary returns a summary of the current state
func (ts *TaskState) Summary() map[string]interface{} {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	return map[string]interface{}{
		"id":                ts.ID,
		"started_at":        ts.StartedAt,
		"duration":          time.Since(ts.StartedAt).String(),
		"aborted":           ts.Abort,
		"abort_reason":      ts.AbortReason,
		"current_iteration": ts.CurrentIteration,
		"max_iterations":    ts.MaxIterations,
		"tool_calls":        ts.ToolCalls,
		"tool_failures":     ts.ToolFailures,
	}
}
