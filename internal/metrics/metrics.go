// Package metrics records tool-call and agent-turn activity.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// Recorder receives measurements. Implementations must be safe for
// concurrent use.
type Recorder interface {
	ToolCall(tool string, success bool, kind string, d time.Duration)
	TurnEnded(reason string, iterations int)
}

// Nop records nothing.
type Nop struct{}

func (Nop) ToolCall(string, bool, string, time.Duration) {}
func (Nop) TurnEnded(string, int)                        {}

// Prometheus exposes Prometheus collectors for tool calls and turns.
type Prometheus struct {
	callDuration *prometheus.HistogramVec
	callFailures *prometheus.CounterVec
	turns        *prometheus.CounterVec
	iterations   prometheus.Histogram
}

// NewPrometheus registers the collectors with reg, or with a fresh registry
// when reg is nil.
func NewPrometheus(reg prometheus.Registerer) (*Prometheus, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	p := &Prometheus{
		callDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "agentcore",
				Subsystem: "tools",
				Name:      "call_duration_seconds",
				Help:      "Duration of tool calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"tool", "status"},
		),
		callFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentcore",
				Subsystem: "tools",
				Name:      "call_failures_total",
				Help:      "Failed tool calls by error kind.",
			},
			[]string{"tool", "kind"},
		),
		turns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "agentcore",
				Subsystem: "agent",
				Name:      "turns_total",
				Help:      "Agent turns by the reason they ended.",
			},
			[]string{"reason"},
		),
		iterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "agentcore",
				Subsystem: "agent",
				Name:      "turn_iterations",
				Help:      "Model round trips per agent turn.",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 25, 50},
			},
		),
	}
	for _, c := range []prometheus.Collector{p.callDuration, p.callFailures, p.turns, p.iterations} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func (p *Prometheus) ToolCall(tool string, success bool, kind string, d time.Duration) {
	status := "success"
	if !success {
		status = "failure"
		p.callFailures.WithLabelValues(tool, kind).Inc()
	}
	p.callDuration.WithLabelValues(tool, status).Observe(d.Seconds())
}

func (p *Prometheus) TurnEnded(reason string, iterations int) {
	p.turns.WithLabelValues(reason).Inc()
	p.iterations.Observe(float64(iterations))
}

// Serve exposes gatherer on addr at /metrics until ctx is done.
func Serve(ctx context.Context, addr string, gatherer prometheus.Gatherer, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	log.Info("metrics listening", zap.String("addr", addr))

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
