// Package events publishes one record per tool call so that observers can
// follow an agent turn from outside the process.
package events

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ToolCall describes one finished tool invocation.
type ToolCall struct {
	ID         string        `json:"id"`
	TurnID     string        `json:"turn_id,omitempty"`
	ProjectID  string        `json:"project_id"`
	Tool       string        `json:"tool"`
	Success    bool          `json:"success"`
	Kind       string        `json:"kind,omitempty"`
	Error      string        `json:"error,omitempty"`
	Duration   time.Duration `json:"duration_ns"`
	OutputSize int           `json:"output_size"`
	Time       time.Time     `json:"time"`
}

// Sink receives tool-call records. Publish must not block the caller for
// long; failures are reported but never affect the tool result.
type Sink interface {
	Publish(ctx context.Context, ev ToolCall) error
	Close() error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, ToolCall) error { return nil }
func (Nop) Close() error                            { return nil }

// Log writes events to a zap logger at debug level.
type Log struct {
	L *zap.Logger
}

func (s Log) Publish(_ context.Context, ev ToolCall) error {
	s.L.Debug("tool call",
		zap.String("id", ev.ID),
		zap.String("turn", ev.TurnID),
		zap.String("project", ev.ProjectID),
		zap.String("tool", ev.Tool),
		zap.Bool("success", ev.Success),
		zap.String("kind", ev.Kind),
		zap.Duration("duration", ev.Duration),
	)
	return nil
}

func (Log) Close() error { return nil }

// Multi fans out to several sinks and joins their errors.
type Multi []Sink

func (m Multi) Publish(ctx context.Context, ev ToolCall) error {
	var errs []error
	for _, s := range m {
		if err := s.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
