package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultTimeout = 30 * time.Second
	MinTimeout     = 1 * time.Second
	MaxTimeout     = 300 * time.Second
	// MaxOutput caps each of stdout and stderr.
	MaxOutput = 1 << 20
)

var (
	ErrBlocked  = errors.New("command blocked by policy")
	ErrTimeout  = errors.New("command timed out")
	ErrDeclined = errors.New("command declined by user")
)

// Result describes one finished, blocked or timed-out command.
type Result struct {
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Blocked  bool          `json:"blocked"`
	TimedOut bool          `json:"timed_out"`
	Reason   string        `json:"reason,omitempty"`
	Duration time.Duration `json:"duration"`
}

// ConfirmFunc asks the user before a command runs.
type ConfirmFunc func(prompt string) bool

// Runner executes commands through the system shell after checking them
// against a Policy.
type Runner struct {
	Policy  *Policy
	Timeout time.Duration
	Confirm ConfirmFunc
	log     *zap.Logger
}

// NewRunner returns a runner with the given policy and default timeout.
func NewRunner(policy *Policy, timeout time.Duration, log *zap.Logger) *Runner {
	if policy == nil {
		policy = NewPolicy(nil)
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{Policy: policy, Timeout: ClampTimeout(timeout), log: log}
}

// ClampTimeout bounds d to [MinTimeout, MaxTimeout]; zero or less means
// DefaultTimeout.
func ClampTimeout(d time.Duration) time.Duration {
	switch {
	case d <= 0:
		return DefaultTimeout
	case d < MinTimeout:
		return MinTimeout
	case d > MaxTimeout:
		return MaxTimeout
	}
	return d
}

// Run checks command and runs it in dir. A non-zero exit is reported in
// Result.ExitCode, not as an error. Blocked commands return ErrBlocked,
// commands that overrun their timeout return ErrTimeout, both alongside a
// populated Result.
func (r *Runner) Run(ctx context.Context, command, dir string, timeout time.Duration) (Result, error) {
	if d := r.Policy.Validate(command); !d.Allowed {
		r.log.Warn("command blocked", zap.String("command", command), zap.String("reason", d.Reason))
		return Result{Blocked: true, ExitCode: -1, Reason: d.Reason}, fmt.Errorf("%w: %s", ErrBlocked, d.Reason)
	}
	if r.Confirm != nil && !r.Confirm("Run command: "+command) {
		return Result{Blocked: true, ExitCode: -1, Reason: "declined by user"}, ErrDeclined
	}
	shell, flag := "/bin/sh", "-c"
	if runtime.GOOS == "windows" {
		shell, flag = "cmd", "/C"
	}
	return r.run(ctx, dir, timeout, command, shell, flag, command)
}

// Exec runs a program directly, without a shell, so arguments need no
// quoting. Only the program name is checked against the allow-list; the
// caller owns the arguments.
func (r *Runner) Exec(ctx context.Context, dir string, timeout time.Duration, name string, args ...string) (Result, error) {
	label := strings.Join(append([]string{name}, args...), " ")
	if d := r.Policy.ValidateHead(name); !d.Allowed {
		r.log.Warn("command blocked", zap.String("command", label), zap.String("reason", d.Reason))
		return Result{Blocked: true, ExitCode: -1, Reason: d.Reason}, fmt.Errorf("%w: %s", ErrBlocked, d.Reason)
	}
	return r.run(ctx, dir, timeout, label, name, args...)
}

func (r *Runner) run(ctx context.Context, dir string, timeout time.Duration, label, name string, args ...string) (Result, error) {
	if timeout <= 0 {
		timeout = r.Timeout
	}
	timeout = ClampTimeout(timeout)

	if dir != "" {
		fi, err := os.Stat(dir)
		if err != nil {
			return Result{ExitCode: -1}, fmt.Errorf("working directory: %w", err)
		}
		if !fi.IsDir() {
			return Result{ExitCode: -1}, fmt.Errorf("working directory %s is not a directory", dir)
		}
	}

	execCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, name, args...)
	cmd.Dir = dir
	cmd.WaitDelay = 2 * time.Second
	stdout := &cappedBuffer{limit: MaxOutput}
	stderr := &cappedBuffer{limit: MaxOutput}
	cmd.Stdout, cmd.Stderr = stdout, stderr

	r.log.Debug("running command", zap.String("command", label), zap.String("dir", dir), zap.Duration("timeout", timeout))
	start := time.Now()
	err := cmd.Run()
	res := Result{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
	}

	switch {
	case errors.Is(execCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.TimedOut, res.ExitCode = true, -1
		return res, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case ctx.Err() != nil:
		res.ExitCode = -1
		return res, ctx.Err()
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.ExitCode = exitErr.ExitCode()
		return res, nil
	}
	if err != nil {
		res.ExitCode = -1
		return res, err
	}
	return res, nil
}

// cappedBuffer keeps the first limit bytes and counts the rest.
type cappedBuffer struct {
	buf     bytes.Buffer
	limit   int
	dropped int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	room := c.limit - c.buf.Len()
	switch {
	case room <= 0:
		c.dropped += len(p)
	case len(p) > room:
		c.buf.Write(p[:room])
		c.dropped += len(p) - room
	default:
		c.buf.Write(p)
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	if c.dropped == 0 {
		return c.buf.String()
	}
	return fmt.Sprintf("%s\n[output truncated, %d bytes dropped]", c.buf.String(), c.dropped)
}
