package tools

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/shell"
	"github.com/simonyos/agentcore/internal/validate"
)

// DefaultTestTimeout bounds run_tests when the call gives no timeout.
const DefaultTestTimeout = 120 * time.Second

func seconds(c *call, key string, def time.Duration) time.Duration {
	if n := c.intOr(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

func (e *Executor) runCommand(ctx context.Context, c *call) (string, error) {
	dir := c.root
	if wd := c.str("working_dir"); wd != "" {
		resolved, err := validate.Resolve(c.root, wd)
		if err != nil {
			return "", err
		}
		dir = resolved
	}
	command := c.str("command")
	res, err := e.runner.Run(ctx, command, dir, seconds(c, "timeout", 0))
	return commandOutcome(command, res, err)
}

// commandOutcome renders a finished command and turns a non-zero exit into
// a failure that keeps the output.
func commandOutcome(command string, res shell.Result, err error) (string, error) {
	switch {
	case errors.Is(err, shell.ErrBlocked):
		return "", errorf(KindPolicy, "Command blocked: %s", res.Reason)
	case errors.Is(err, shell.ErrDeclined):
		return "", errorf(KindPolicy, "Command declined by user: %s", command)
	case errors.Is(err, shell.ErrTimeout):
		return formatCommand(res), errorf(KindTimeout, "Command timed out: %s", command)
	case err != nil:
		return formatCommand(res), err
	case res.ExitCode != 0:
		return formatCommand(res), errorf(KindFailed, "Command exited with code %d", res.ExitCode)
	}
	return formatCommand(res), nil
}

func formatCommand(res shell.Result) string {
	var sb strings.Builder
	sb.WriteString(strings.TrimRight(res.Stdout, "\n"))
	if s := strings.TrimRight(res.Stderr, "\n"); s != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("[stderr]\n" + s)
	}
	if res.ExitCode != 0 {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "[exit code %d]", res.ExitCode)
	}
	if sb.Len() == 0 {
		return "(no output)"
	}
	return sb.String()
}

func (e *Executor) checkCommand(_ context.Context, c *call) (string, error) {
	command := c.str("command")
	if d := e.runner.Policy.Validate(command); !d.Allowed {
		return fmt.Sprintf("Blocked: %s", d.Reason), nil
	}
	return "Allowed: " + command, nil
}

func (e *Executor) git(ctx context.Context, c *call, args ...string) (string, error) {
	res, err := e.runner.Exec(ctx, c.root, 0, "git", args...)
	return commandOutcome("git "+strings.Join(args, " "), res, err)
}

func (e *Executor) gitStatus(ctx context.Context, c *call) (string, error) {
	out, err := e.git(ctx, c, "status", "--short", "--branch")
	if err != nil {
		return out, err
	}
	if lines := strings.Split(out, "\n"); len(lines) == 1 && strings.HasPrefix(lines[0], "##") {
		out += "\nWorking tree clean"
	}
	return out, nil
}

func (e *Executor) gitDiff(ctx context.Context, c *call) (string, error) {
	args := []string{"diff"}
	if p := relPath(c.str("path")); p != "" {
		args = append(args, "--", p)
	}
	out, err := e.git(ctx, c, args...)
	if err == nil && out == "(no output)" {
		return "No unstaged changes", nil
	}
	return out, err
}

func (e *Executor) gitLog(ctx context.Context, c *call) (string, error) {
	n := min(max(c.intOr("count", 10), 1), 100)
	return e.git(ctx, c, "log", "--oneline", "-n", strconv.Itoa(n))
}

func (e *Executor) gitCommit(ctx context.Context, c *call) (string, error) {
	msg := c.str("message")
	if e.confirm != nil && !e.confirm("Commit all changes: "+msg) {
		return "", errorf(KindPolicy, "Commit declined by user")
	}
	if out, err := e.git(ctx, c, "add", "-A"); err != nil {
		return out, err
	}
	return e.git(ctx, c, "commit", "-m", msg)
}

func (e *Executor) gitBranch(ctx context.Context, c *call) (string, error) {
	name := c.str("name")
	switch action := c.str("action"); action {
	case "list":
		return e.git(ctx, c, "branch", "--list")
	case "create":
		if _, err := e.git(ctx, c, "branch", name); err != nil {
			return "", err
		}
		return "Created branch " + name, nil
	case "switch":
		if _, err := e.git(ctx, c, "checkout", name); err != nil {
			return "", err
		}
		return "Switched to branch " + name, nil
	default:
		return "", errorf(KindValidation, "Unknown branch action '%s'", action)
	}
}

func (e *Executor) runTests(ctx context.Context, c *call) (string, error) {
	command := c.str("command")
	if command == "" {
		nodes, err := e.store.FileTree(c.projectID)
		if err != nil {
			return "", err
		}
		if command = detectTestCommand(nodes); command == "" {
			return "", errorf(KindNotFound, "No test runner detected. Pass a command to run")
		}
	}
	res, err := e.runner.Run(ctx, command, c.root, seconds(c, "timeout", DefaultTestTimeout))
	out, err := commandOutcome(command, res, err)
	header := fmt.Sprintf("$ %s (%s)\n", command, res.Duration.Round(time.Millisecond))
	if Classify(err) == KindFailed {
		return header + out, errorf(KindFailed, "Tests failed (exit code %d)", res.ExitCode)
	}
	if err != nil {
		return out, err
	}
	return header + out, nil
}

// testRunners maps a top-level marker file to the command that runs the
// project's tests. Earlier entries win.
var testRunners = []struct{ marker, command string }{
	{"package.json", "npm test"},
	{"go.mod", "go test ./..."},
	{"Cargo.toml", "cargo test"},
	{"gradlew", "./gradlew test"},
	{"build.gradle.kts", "gradle test"},
	{"build.gradle", "gradle test"},
	{"pom.xml", "mvn test"},
	{"pyproject.toml", "python3 -m pytest"},
	{"pytest.ini", "python3 -m pytest"},
	{"setup.py", "python3 -m pytest"},
	{"requirements.txt", "python3 -m pytest"},
	{"Makefile", "make test"},
}

func detectTestCommand(nodes []project.Node) string {
	top := map[string]bool{}
	for _, n := range nodes {
		if f, ok := n.(*project.FileNode); ok {
			top[f.Name] = true
		}
	}
	for _, r := range testRunners {
		if top[r.marker] {
			return r.command
		}
	}
	return ""
}
