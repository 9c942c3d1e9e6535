package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/simonyos/agentcore/internal/agent"
	"github.com/simonyos/agentcore/internal/config"
	"github.com/simonyos/agentcore/internal/events"
	"github.com/simonyos/agentcore/internal/llm"
	"github.com/simonyos/agentcore/internal/logging"
	"github.com/simonyos/agentcore/internal/memory"
	"github.com/simonyos/agentcore/internal/metrics"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/rules"
	"github.com/simonyos/agentcore/internal/shell"
	"github.com/simonyos/agentcore/internal/tools"
)

// app is the wired set of collaborators shared by the commands.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *project.LocalStore
	executor *tools.Executor
	metrics  metrics.Recorder
	project  string

	closers []func() error
	stop    context.CancelFunc
}

func loadConfig() (*config.Store, *config.Config, error) {
	s, err := config.Open(configFlag)
	if err != nil {
		return nil, nil, err
	}
	cfg, err := s.Config()
	if err != nil {
		return nil, nil, err
	}
	if modelFlag != "" {
		cfg.DefaultModel = modelFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	switch {
	case workspaceFlag != "":
		cfg.WorkspaceDir = workspaceFlag
	case projectFlag == project.DefaultProject:
		// "." is the current directory
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, err
		}
		cfg.WorkspaceDir = wd
	}
	return s, cfg, nil
}

// confirmFunc answers confirmations for non-interactive commands.
func confirmFunc() func(string) bool {
	return func(prompt string) bool {
		if !yesFlag {
			fmt.Fprintf(os.Stderr, "declined: %s (pass --yes to approve)\n", prompt)
		}
		return yesFlag
	}
}

// newApp wires the executor and its collaborators. quiet sends logs to
// --log-file only, for the full-screen TUI.
func newApp(ctx context.Context, confirm func(string) bool, quiet bool) (*app, error) {
	_, cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, project: projectFlag}
	switch {
	case logFileFlag != "":
		a.log, err = logging.NewTo(cfg.LogLevel, cfg.LogJSON, logFileFlag)
	case quiet:
		a.log = logging.Nop()
	default:
		a.log, err = logging.New(cfg.LogLevel, cfg.LogJSON)
	}
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() error {
		_ = a.log.Sync()
		return nil
	})

	if err := os.MkdirAll(cfg.WorkspaceDir, 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	a.store, err = project.NewLocalStore(cfg.WorkspaceDir, a.log)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.MemoryDB), 0o700); err != nil {
		return nil, fmt.Errorf("create memory directory: %w", err)
	}
	mem, err := memory.OpenSQLite(ctx, cfg.MemoryDB, a.log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, mem.Close)

	runner := shell.NewRunner(shell.NewPolicy(cfg.AllowList(shell.DefaultAllow)), cfg.ShellTimeout, a.log)
	runner.Confirm = confirm

	sink := events.Multi{events.Log{L: a.log}}
	if cfg.NATSURL != "" {
		nc := events.DefaultNATSConfig()
		nc.URL = cfg.NATSURL
		conn, err := events.ConnectNATS(nc, a.log)
		if err != nil {
			// events are optional; tools still run
			a.log.Warn("tool events disabled", zap.Error(err))
		} else {
			sink = append(sink, conn)
			a.closers = append(a.closers, conn.Close)
		}
	}

	a.metrics = metrics.Nop{}
	if cfg.MetricsAddr != "" {
		reg := prometheus.NewRegistry()
		p, err := metrics.NewPrometheus(reg)
		if err != nil {
			return nil, err
		}
		a.metrics = p
		mctx, cancel := context.WithCancel(ctx)
		a.stop = cancel
		go func() {
			if err := metrics.Serve(mctx, cfg.MetricsAddr, reg, a.log); err != nil {
				a.log.Warn("metrics server stopped", zap.Error(err))
			}
		}()
	}

	a.executor = tools.NewExecutor(tools.Options{
		Store:   a.store,
		Memory:  mem,
		Todos:   mem,
		Runner:  runner,
		Events:  sink,
		Metrics: a.metrics,
		Log:     a.log,
		Confirm: confirm,
	})
	return a, nil
}

// rules loads the global and project rule files.
func (a *app) rules() ([]rules.Rule, error) {
	root, err := a.store.Root(a.project)
	if err != nil {
		return nil, err
	}
	return rules.NewLoader(rules.GlobalDir(), root, a.log).Load()
}

func (a *app) driver() (*agent.Driver, error) {
	loaded, err := a.rules()
	if err != nil {
		return nil, err
	}
	provider := llm.NewOpenAI(llm.OpenAIConfig{
		APIKey:     a.cfg.OpenAIKey,
		Model:      a.cfg.DefaultModel,
		BaseURL:    a.cfg.BaseURL,
		RequireKey: a.cfg.BaseURL == "" || a.cfg.BaseURL == llm.DefaultBaseURL,
	}, a.log)
	return agent.New(agent.Options{
		Provider:        provider,
		Executor:        a.executor,
		ProjectID:       a.project,
		MaxIterations:   a.cfg.MaxIterations,
		MaxToolOutput:   a.cfg.MaxToolOutput,
		PreviewLength:   a.cfg.PreviewLength,
		BasicOnly:       readOnlyFlag,
		RepairArguments: a.cfg.RepairToolArguments,
		CustomRules:     rules.Render(loaded),
		Metrics:         a.metrics,
		Log:             a.log,
	})
}

func (a *app) close() error {
	if a.stop != nil {
		a.stop()
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
