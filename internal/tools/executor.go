package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simonyos/agentcore/internal/events"
	"github.com/simonyos/agentcore/internal/logging"
	"github.com/simonyos/agentcore/internal/memory"
	"github.com/simonyos/agentcore/internal/metrics"
	"github.com/simonyos/agentcore/internal/project"
	"github.com/simonyos/agentcore/internal/shell"
	"github.com/simonyos/agentcore/internal/validate"
	"github.com/simonyos/agentcore/internal/web"
)

// PreviewLength is the default size of a result preview in a transcript.
const PreviewLength = 500

// Options wires an Executor to its collaborators. Only Store is required.
type Options struct {
	Store    project.Store
	Memory   memory.Storage
	Todos    memory.TodoStore
	Runner   *shell.Runner
	Fetcher  *web.Fetcher
	Events   events.Sink
	Metrics  metrics.Recorder
	Log      *zap.Logger
	Confirm  ConfirmFunc
	Registry *Registry
}

// Executor validates and runs tool calls against a project. Execute never
// panics and never returns a Go error: every failure becomes a ToolResult.
// Calls for the same project should be issued sequentially.
type Executor struct {
	store    project.Store
	memory   memory.Storage
	todos    memory.TodoStore
	runner   *shell.Runner
	fetcher  *web.Fetcher
	events   events.Sink
	metrics  metrics.Recorder
	log      *zap.Logger
	confirm  ConfirmFunc
	registry *Registry

	extended map[string]handler
	core     map[string]handler
}

// NewExecutor returns an executor. Missing optional collaborators get
// in-process defaults.
func NewExecutor(opts Options) *Executor {
	if opts.Store == nil {
		panic("tools: NewExecutor requires a project store")
	}
	e := &Executor{
		store:    opts.Store,
		memory:   opts.Memory,
		todos:    opts.Todos,
		runner:   opts.Runner,
		fetcher:  opts.Fetcher,
		events:   opts.Events,
		metrics:  opts.Metrics,
		log:      logging.OrNop(opts.Log),
		confirm:  opts.Confirm,
		registry: opts.Registry,
	}
	if e.memory == nil || e.todos == nil {
		mem := memory.NewInMemory()
		if e.memory == nil {
			e.memory = mem
		}
		if e.todos == nil {
			e.todos = mem
		}
	}
	if e.runner == nil {
		e.runner = shell.NewRunner(nil, 0, e.log)
	}
	if e.fetcher == nil {
		e.fetcher = web.NewFetcher(nil, e.log)
	}
	if e.events == nil {
		e.events = events.Nop{}
	}
	if e.metrics == nil {
		e.metrics = metrics.Nop{}
	}
	if e.registry == nil {
		e.registry = DefaultRegistry()
	}
	e.core = e.coreHandlers()
	e.extended = e.extendedHandlers()
	return e
}

// Registry returns the catalog the executor advertises.
func (e *Executor) Registry() *Registry { return e.registry }

// Root returns the directory a project's paths resolve against.
func (e *Executor) Root(projectID string) (string, error) { return e.store.Root(projectID) }

func (e *Executor) lookup(name string) (handler, bool) {
	if _, ok := e.registry.ByName(name); !ok {
		return nil, false
	}
	if h, ok := e.extended[name]; ok {
		return h, true
	}
	h, ok := e.core[name]
	return h, ok
}

// Execute runs one tool call whose arguments are a JSON object.
func (e *Executor) Execute(ctx context.Context, projectID, name, argsJSON string) ToolResult {
	if _, ok := e.lookup(name); ok {
		args, err := ParseArguments(argsJSON)
		if err != nil {
			res := Fail(KindValidation, "Invalid JSON arguments: "+err.Error())
			e.record(ctx, projectID, name, res, 0)
			return res
		}
		return e.ExecuteArgs(ctx, projectID, name, args)
	}
	return e.ExecuteArgs(ctx, projectID, name, nil)
}

// ExecuteArgs runs one tool call with decoded arguments.
func (e *Executor) ExecuteArgs(ctx context.Context, projectID, name string, args map[string]any) (res ToolResult) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("tool panicked",
				zap.String("tool", name),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			res = Fail(KindInternal, fmt.Sprintf("Internal error in %s: %v", name, r))
		}
		e.record(ctx, projectID, name, res, time.Since(start))
	}()

	h, ok := e.lookup(name)
	if !ok {
		return Fail(KindValidation, "Unknown tool: "+name)
	}
	if args == nil {
		args = map[string]any{}
	}
	e.log.Debug("tool call started", zap.String("tool", name), zap.String("project", projectID), logging.Args(args))

	root, err := e.store.Root(projectID)
	if err != nil {
		return Fail(Classify(err), err.Error())
	}
	if v := validate.Validate(name, args, root); !v.IsValid {
		return Fail(validationKind(v.Errors), "Invalid arguments: "+v.Error())
	}

	out, err := h(ctx, &call{projectID: projectID, root: root, args: args})
	if err != nil {
		res = Fail(Classify(err), err.Error())
		res.Output = out
		return res
	}
	return OK(out)
}

// validationKind reports sandbox escapes and protected paths as policy
// violations and everything else as invalid input.
func validationKind(errs []string) ErrorKind {
	for _, msg := range errs {
		if strings.Contains(msg, validate.ErrOutsideRoot.Error()) || strings.Contains(msg, "protected path") {
			return KindPolicy
		}
	}
	return KindValidation
}

func (e *Executor) record(ctx context.Context, projectID, name string, res ToolResult, d time.Duration) {
	e.log.Info("tool call",
		zap.String("tool", name),
		zap.String("project", projectID),
		zap.Duration("duration", d),
		zap.Bool("success", res.Success),
		zap.String("kind", string(res.Kind)),
	)
	e.metrics.ToolCall(name, res.Success, string(res.Kind), d)
	ev := events.ToolCall{
		ID:         uuid.NewString(),
		TurnID:     TurnFrom(ctx),
		ProjectID:  projectID,
		Tool:       name,
		Success:    res.Success,
		Kind:       string(res.Kind),
		Error:      res.Error,
		Duration:   d,
		OutputSize: len(res.Output),
		Time:       time.Now().UTC(),
	}
	if err := e.events.Publish(context.WithoutCancel(ctx), ev); err != nil {
		e.log.Warn("publish tool event", zap.String("tool", name), zap.Error(err))
	}
}

// ParseArguments decodes a tool-call argument object. Blank input and
// JSON null mean no arguments. Numbers are kept as json.Number.
func ParseArguments(argsJSON string) (map[string]any, error) {
	trimmed := strings.TrimSpace(argsJSON)
	if trimmed == "" || trimmed == "null" {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("unexpected data after the argument object")
	}
	args, ok := v.(map[string]any)
	if !ok {
		return nil, errors.New("arguments must be a JSON object")
	}
	return args, nil
}

// Preview shortens s to at most n runes for display, marking the cut.
func Preview(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n]) + "…"
}

type turnKey struct{}

// WithTurn tags ctx with the id of the agent turn issuing tool calls.
func WithTurn(ctx context.Context, turnID string) context.Context {
	return context.WithValue(ctx, turnKey{}, turnID)
}

// TurnFrom returns the turn id set by WithTurn, or "".
func TurnFrom(ctx context.Context) string {
	id, _ := ctx.Value(turnKey{}).(string)
	return id
}

func (e *Executor) coreHandlers() map[string]handler {
	return map[string]handler{
		"read_file":       e.readFile,
		"write_file":      e.writeFile,
		"create_file":     e.createFile,
		"create_folder":   e.createFolder,
		"delete_file":     e.deleteFile,
		"rename_file":     e.renameFile,
		"list_files":      e.listFiles,
		"search_files":    e.searchFiles,
		"replace_in_file": e.replaceInFile,

		"save_memory":   e.saveMemory,
		"recall_memory": e.recallMemory,
		"list_memories": e.listMemories,
		"delete_memory": e.deleteMemory,
		"update_memory": e.updateMemory,
		"manage_todos":  e.manageTodos,

		"batch_rename":  e.batchRename,
		"batch_modify":  e.batchModify,
		"refactor_code": e.refactorCode,

		"check_syntax":    e.checkSyntax,
		"validate_json":   e.validateJSON,
		"find_dead_code":  e.findDeadCode,
		"analyze_imports": e.analyzeImports,

		"scaffold_project": e.scaffoldProject,
		"generate_docs":    e.generateDocs,

		"finish_task": e.finishTask,
		"ask_user":    e.askUser,
	}
}

func (e *Executor) extendedHandlers() map[string]handler {
	return map[string]handler{
		"diff_files":    e.diffFiles,
		"diff_content":  e.diffContent,
		"apply_patch":   e.applyPatch,
		"semantic_diff": e.semanticDiff,

		"run_command":   e.runCommand,
		"check_command": e.checkCommand,
		"web_fetch":     e.webFetch,

		"git_status": e.gitStatus,
		"git_diff":   e.gitDiff,
		"git_log":    e.gitLog,
		"git_commit": e.gitCommit,
		"git_branch": e.gitBranch,

		"generate_code":       e.generateCode,
		"run_tests":           e.runTests,
		"security_scan":       e.securityScan,
		"scan_secrets":        e.scanSecrets,
		"analyze_performance": e.analyzePerformance,
	}
}

func (e *Executor) finishTask(_ context.Context, c *call) (string, error) {
	return c.str("summary"), nil
}

func (e *Executor) askUser(_ context.Context, c *call) (string, error) {
	return c.str("question"), nil
}
