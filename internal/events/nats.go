package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

// SubjectPrefix roots every tool-call subject:
// agentcore.tools.<project>.<tool>.
const SubjectPrefix = "agentcore.tools"

var ErrNotConnected = errors.New("not connected to NATS")

// NATSConfig contains NATS connection configuration.
type NATSConfig struct {
	URL            string        `json:"url" yaml:"url"`
	CredsFile      string        `json:"creds_file,omitempty" yaml:"creds_file,omitempty"`
	Token          string        `json:"token,omitempty" yaml:"token,omitempty"`
	ConnectTimeout time.Duration `json:"connect_timeout,omitempty" yaml:"connect_timeout,omitempty"`
	ReconnectWait  time.Duration `json:"reconnect_wait,omitempty" yaml:"reconnect_wait,omitempty"`
	MaxReconnects  int           `json:"max_reconnects,omitempty" yaml:"max_reconnects,omitempty"`
}

// DefaultNATSConfig returns the default NATS configuration.
func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:            nats.DefaultURL,
		ConnectTimeout: 5 * time.Second,
		ReconnectWait:  2 * time.Second,
		MaxReconnects:  60,
	}
}

func (c NATSConfig) options(name string, log *zap.Logger) []nats.Option {
	opts := []nats.Option{
		nats.Name(name),
		nats.Timeout(c.ConnectTimeout),
		nats.ReconnectWait(c.ReconnectWait),
		nats.MaxReconnects(c.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}
	if c.CredsFile != "" {
		opts = append(opts, nats.UserCredentials(c.CredsFile))
	}
	if c.Token != "" {
		opts = append(opts, nats.Token(c.Token))
	}
	return opts
}

// NATS publishes events as JSON on per-project, per-tool subjects.
type NATS struct {
	conn *nats.Conn
	log  *zap.Logger
}

// ConnectNATS dials the server in config.
func ConnectNATS(config NATSConfig, log *zap.Logger) (*NATS, error) {
	if log == nil {
		log = zap.NewNop()
	}
	conn, err := nats.Connect(config.URL, config.options("agentcore-events", log)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS at %s: %w", config.URL, err)
	}
	return &NATS{conn: conn, log: log}, nil
}

// Subject returns the subject an event for project and tool is sent on.
// Characters NATS treats as separators or wildcards are replaced.
func Subject(projectID, tool string) string {
	return SubjectPrefix + "." + token(projectID) + "." + token(tool)
}

func token(s string) string {
	if s == "" {
		return "_"
	}
	return strings.Map(func(r rune) rune {
		switch r {
		case '.', '*', '>', ' ', '\t', '\n', '\r':
			return '_'
		}
		return r
	}, s)
}

func (n *NATS) Publish(_ context.Context, ev ToolCall) error {
	if n.conn == nil || n.conn.IsClosed() {
		return ErrNotConnected
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return n.conn.Publish(Subject(ev.ProjectID, ev.Tool), data)
}

// Watch delivers every event matching projectID ("" for all projects) to
// fn until ctx is done.
func (n *NATS) Watch(ctx context.Context, projectID string, fn func(ToolCall)) error {
	if n.conn == nil || n.conn.IsClosed() {
		return ErrNotConnected
	}
	subject := SubjectPrefix + ".>"
	if projectID != "" {
		subject = SubjectPrefix + "." + token(projectID) + ".*"
	}
	sub, err := n.conn.Subscribe(subject, func(msg *nats.Msg) {
		var ev ToolCall
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			n.log.Warn("malformed event", zap.String("subject", msg.Subject), zap.Error(err))
			return
		}
		fn(ev)
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()
	<-ctx.Done()
	return nil
}

// Close flushes pending events and closes the connection.
func (n *NATS) Close() error {
	if n.conn == nil || n.conn.IsClosed() {
		return nil
	}
	err := n.conn.Flush()
	n.conn.Close()
	return err
}
