// Package prompts builds the system prompt the agent driver sends ahead of
// every conversation.
package prompts

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
)

// PromptContext contains runtime context for prompt generation
type PromptContext struct {
	ProjectID string
	Root      string
	OS        string
	Shell     string
	ToolNames []string
	// ReadOnly is set when only the basic tool set is advertised.
	ReadOnly      bool
	MaxIterations int
	CustomRules   string
}

// has reports whether name is advertised. An empty list means every tool is.
func (c *PromptContext) has(name string) bool {
	return len(c.ToolNames) == 0 || slices.Contains(c.ToolNames, name)
}

// NewPromptContext creates a context with system defaults
func NewPromptContext(projectID, root string) *PromptContext {
	shell := os.Getenv("SHELL")
	if shell == "" {
		if runtime.GOOS == "windows" {
			shell = "cmd.exe"
		} else {
			shell = "/bin/sh"
		}
	}

	osName := runtime.GOOS
	switch osName {
	case "darwin":
		osName = "macOS"
	case "linux":
		osName = "Linux"
	case "windows":
		osName = "Windows"
	}

	return &PromptContext{
		ProjectID: projectID,
		Root:      root,
		OS:        osName,
		Shell:     shell,
	}
}

// PromptBuilder constructs the system prompt from components
type PromptBuilder struct {
	ctx        *PromptContext
	components []func(*PromptContext) string
}

// NewPromptBuilder creates a new builder with default components
func NewPromptBuilder(ctx *PromptContext) *PromptBuilder {
	return &PromptBuilder{
		ctx: ctx,
		components: []func(*PromptContext) string{
			agentRole,
			capabilities,
			editingFiles,
			rules,
			systemInfo,
			objective,
		},
	}
}

// Build generates the complete system prompt
func (b *PromptBuilder) Build() string {
	var sections []string
	for _, component := range b.components {
		if section := component(b.ctx); section != "" {
			sections = append(sections, section)
		}
	}
	if b.ctx.CustomRules != "" {
		sections = append(sections, "USER INSTRUCTIONS\n\n"+b.ctx.CustomRules)
	}
	return strings.Join(sections, "\n\n====\n\n")
}

// WithCustomRules adds user-defined rules
func (b *PromptBuilder) WithCustomRules(rules string) *PromptBuilder {
	b.ctx.CustomRules = strings.TrimSpace(rules)
	return b
}

// WithTools sets the advertised tool names. readOnly marks the basic set.
func (b *PromptBuilder) WithTools(names []string, readOnly bool) *PromptBuilder {
	b.ctx.ToolNames = names
	b.ctx.ReadOnly = readOnly
	return b
}

// WithMaxIterations states the tool-round budget in the prompt.
func (b *PromptBuilder) WithMaxIterations(n int) *PromptBuilder {
	b.ctx.MaxIterations = n
	return b
}

func agentRole(*PromptContext) string {
	return `You are a software engineering agent. You work inside one project and change it only through the tools you are given.`
}

func capabilities(ctx *PromptContext) string {
	var sb strings.Builder
	sb.WriteString("CAPABILITIES\n\n")
	if ctx.ReadOnly {
		sb.WriteString("- You are in read-only mode. You can inspect, search, diff and scan the project but not change it.\n")
	} else {
		sb.WriteString("- You can read, create, edit, rename and delete files, run allow-listed shell commands, use git, fetch web pages, scaffold projects and generate code.\n")
	}
	sb.WriteString("- Use list_files first to learn the layout of an unfamiliar project, and search_files to find code by text or regular expression.\n")
	if ctx.has("save_memory") {
		sb.WriteString("- Use save_memory for facts worth keeping between sessions.\n")
	}
	if ctx.has("manage_todos") {
		sb.WriteString("- Use manage_todos to track multi-step work.\n")
	}
	if len(ctx.ToolNames) > 0 {
		fmt.Fprintf(&sb, "- Available tools: %s.", strings.Join(ctx.ToolNames, ", "))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func editingFiles(ctx *PromptContext) string {
	if ctx.ReadOnly {
		return ""
	}
	return `EDITING FILES

- replace_in_file changes part of a file. The search text must match the file exactly, so read the file first.
- write_file replaces a whole file and creates it and its folders if absent. Use it for new files and full rewrites.
- batch_modify, batch_rename and refactor_code change many files at once. Run them with dry_run first and check the reported change set.
- apply_patch applies a unified diff. It fails without writing anything when a hunk does not match.`
}

func rules(ctx *PromptContext) string {
	var sb strings.Builder
	sb.WriteString("RULES\n\n")
	sb.WriteString("- All paths are relative to the project root. Paths that leave the project are rejected.\n")
	sb.WriteString("- Tool calls run one at a time in the order you list them, so a later call sees the effects of earlier ones.\n")
	sb.WriteString("- A failed tool call does not stop the others. Read every result before deciding the next step.\n")
	sb.WriteString("- Protected paths such as .git and node_modules cannot be deleted, and commands outside the allow-list are blocked. Use check_command when unsure.\n")
	if ctx.has("ask_user") {
		sb.WriteString("- Call ask_user only when the task cannot proceed without an answer. It ends your turn.\n")
	}
	if ctx.has("finish_task") {
		sb.WriteString("- Call finish_task with a short summary when the task is complete. It ends your turn.\n")
	}
	if ctx.MaxIterations > 0 {
		fmt.Fprintf(&sb, "- You have at most %d rounds of tool calls per message.\n", ctx.MaxIterations)
	}
	sb.WriteString("- Be direct. Do not open with filler such as \"Great\" or \"Sure\".")
	return sb.String()
}

func systemInfo(ctx *PromptContext) string {
	return fmt.Sprintf(`SYSTEM INFORMATION

Operating System: %s
Default Shell: %s
Project: %s
Project Root: %s`, ctx.OS, ctx.Shell, ctx.ProjectID, ctx.Root)
}

func objective(ctx *PromptContext) string {
	finish := "3. Answer plainly, or explain what blocked you."
	if ctx.has("finish_task") {
		finish = "3. Finish with finish_task, or explain plainly what blocked you."
	}
	return `OBJECTIVE

1. Work out what the user wants and break it into steps.
2. Work through the steps with the tools, checking each result.
` + finish
}

// BuildSystemPrompt builds a prompt for a project with the given tools.
func BuildSystemPrompt(projectID, root string, toolNames []string, readOnly bool, maxIterations int, customRules string) string {
	return NewPromptBuilder(NewPromptContext(projectID, root)).
		WithTools(toolNames, readOnly).
		WithMaxIterations(maxIterations).
		WithCustomRules(customRules).
		Build()
}
