package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type failing struct{ closed bool }

func (f *failing) Publish(context.Context, ToolCall) error { return errors.New("boom") }

func (f *failing) Close() error {
	f.closed = true
	return nil
}

func TestSubject(t *testing.T) {
	tests := []struct {
		project, tool, want string
	}{
		{"demo", "read_file", "agentcore.tools.demo.read_file"},
		{"my.app", "write_file", "agentcore.tools.my_app.write_file"},
		{"", "git_status", "agentcore.tools._.git_status"},
		{"a*b>c d", "x", "agentcore.tools.a_b_c_d.x"},
	}
	for _, tt := range tests {
		if got := Subject(tt.project, tt.tool); got != tt.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", tt.project, tt.tool, got, tt.want)
		}
	}
}

func TestLogSink(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	s := Log{L: zap.New(core)}
	if err := s.Publish(context.Background(), ToolCall{Tool: "read_file", Success: true}); err != nil {
		t.Fatal(err)
	}
	if logs.Len() != 1 || logs.All()[0].ContextMap()["tool"] != "read_file" {
		t.Errorf("unexpected log entries: %v", logs.All())
	}
}

func TestMulti(t *testing.T) {
	f := &failing{}
	m := Multi{Nop{}, f}
	if err := m.Publish(context.Background(), ToolCall{}); err == nil {
		t.Error("expected joined error")
	}
	if err := m.Close(); err != nil {
		t.Fatal(err)
	}
	if !f.closed {
		t.Error("sink not closed")
	}
}

func TestNATSRoundTrip(t *testing.T) {
	n, err := ConnectNATS(DefaultNATSConfig(), nil)
	if err != nil {
		t.Skipf("NATS not available: %v", err)
	}
	defer n.Close()

	ctx, cancel := context.WithCancel(context.Background())
	got := make(chan ToolCall, 1)
	go n.Watch(ctx, "demo", func(ev ToolCall) { got <- ev })
	defer cancel()
	time.Sleep(100 * time.Millisecond)

	if err := n.Publish(ctx, ToolCall{ProjectID: "demo", Tool: "read_file", Success: true}); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	select {
	case ev := <-got:
		if ev.Tool != "read_file" || !ev.Success {
			t.Errorf("got %+v", ev)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("event not received")
	}
}
