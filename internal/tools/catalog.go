package tools

import "github.com/simonyos/agentcore/internal/validate"

func str(desc string) *JSONSchema     { return &JSONSchema{Type: "string", Description: desc} }
func boolean(desc string) *JSONSchema { return &JSONSchema{Type: "boolean", Description: desc} }
func number(desc string) *JSONSchema  { return &JSONSchema{Type: "number", Description: desc} }

func enum(desc string, values []string) *JSONSchema {
	return &JSONSchema{Type: "string", Description: desc, Enum: values}
}

type props map[string]*JSONSchema

func define(name, desc string, basic bool, p props, required ...string) ToolDefinition {
	if p == nil {
		p = props{}
	}
	return ToolDefinition{
		Name:        name,
		Description: desc,
		Basic:       basic,
		Parameters: &JSONSchema{
			Type:       "object",
			Properties: p,
			Required:   required,
		},
	}
}

const (
	pathDesc    = "Path relative to the project root"
	dirDesc     = "Directory or file relative to the project root (defaults to the whole project)"
	dryRunDesc  = "If true, report the changes without applying them"
	timeoutDesc = "Timeout in seconds"
)

// CoreDefinitions are the file, memory, search, batch, quality, scaffold,
// docs and control tools.
func CoreDefinitions() []ToolDefinition {
	return []ToolDefinition{
		define("read_file", "Read the contents of a file", true,
			props{"path": str(pathDesc)}, "path"),
		define("write_file", "Write content to a file, creating it and its parent folders if absent", false,
			props{"path": str(pathDesc), "content": str("The full new content of the file")}, "path", "content"),
		define("create_file", "Create a new file. Fails if the file already exists", false,
			props{"path": str(pathDesc), "content": str("Initial content (optional)")}, "path"),
		define("create_folder", "Create a folder and any missing parents", false,
			props{"path": str(pathDesc)}, "path"),
		define("delete_file", "Delete a file or folder. Protected paths such as .git cannot be deleted", false,
			props{"path": str(pathDesc)}, "path"),
		define("rename_file", "Rename a file or folder in place", false,
			props{"path": str(pathDesc), "new_name": str("The new name (a single path element)")}, "path", "new_name"),
		define("list_files", "Show the project's file tree", true,
			props{"path": str("Folder to list (defaults to the project root)")}),
		define("search_files", "Search file contents. Returns matching lines with file paths and line numbers", true,
			props{
				"query":          str("Text or regular expression to search for"),
				"path":           str(dirDesc),
				"file_pattern":   str("Glob on file names, e.g. '*.ts'. Separate several with commas"),
				"case_sensitive": boolean("Match case exactly (default false)"),
				"use_regex":      boolean("Treat query as a regular expression"),
			}, "query"),
		define("replace_in_file", "Replace text in a file", false,
			props{
				"path":        str(pathDesc),
				"search":      str("Text or regular expression to find"),
				"replace":     str("Replacement text. With use_regex, $1 refers to a capture group"),
				"use_regex":   boolean("Treat search as a regular expression"),
				"replace_all": boolean("Replace every occurrence instead of the first"),
			}, "path", "search", "replace"),

		define("save_memory", "Remember a value for this project under a key", false,
			props{"key": str("Key: letters, digits, '.', '_' or '-'"), "value": str("Value to store")}, "key", "value"),
		define("recall_memory", "Recall a remembered value", true,
			props{"key": str("Key to recall")}, "key"),
		define("list_memories", "List all remembered keys and values", true, nil),
		define("delete_memory", "Forget a remembered value", false,
			props{"key": str("Key to delete")}, "key"),
		define("update_memory", "Overwrite an existing remembered value", false,
			props{"key": str("Key to update"), "value": str("New value")}, "key", "value"),
		define("manage_todos", "Manage the project's todo list", false,
			props{
				"action":  enum("Action to perform", validate.TodoActions),
				"content": str("Todo text (for add)"),
				"id":      number("Todo id (for complete and remove)"),
			}, "action"),

		define("batch_rename", "Rename every file whose name matches a regular expression", false,
			props{
				"path":        str(dirDesc),
				"pattern":     str("Regular expression matched against file names"),
				"replacement": str("Replacement for the matched part; $1 refers to a capture group"),
				"dry_run":     boolean(dryRunDesc),
			}, "pattern", "replacement"),
		define("batch_modify", "Replace text in every file matching a name pattern", false,
			props{
				"file_pattern": str("Glob on file names, e.g. '*.js'. Separate several with commas"),
				"search":       str("Text or regular expression to find"),
				"replace":      str("Replacement text"),
				"path":         str(dirDesc),
				"use_regex":    boolean("Treat search as a regular expression"),
				"dry_run":      boolean(dryRunDesc),
			}, "file_pattern", "search", "replace"),
		define("refactor_code", "Rename a symbol across files or sort import statements", false,
			props{
				"operation": enum("Refactoring to perform", validate.RefactorOperations),
				"path":      str("File or folder to refactor"),
				"old_name":  str("Current symbol name (rename_symbol)"),
				"new_name":  str("New symbol name (rename_symbol)"),
				"dry_run":   boolean(dryRunDesc),
			}, "operation", "path"),

		define("check_syntax", "Check a file for unbalanced brackets, tags or invalid JSON", true,
			props{"path": str(pathDesc), "language": str("Language override, e.g. javascript, html, json")}, "path"),
		define("validate_json", "Validate JSON from a file or inline content", true,
			props{"path": str(pathDesc), "content": str("JSON text to validate")}),
		define("find_dead_code", "Find exported names that appear unused. Heuristic: dynamic usage is not detected", true,
			props{"path": str(dirDesc)}),
		define("analyze_imports", "List the imports of a file or of every source file in a folder", true,
			props{"path": str("File or folder to analyze")}, "path"),

		define("scaffold_project", "Create a new project skeleton in a folder named after the project", false,
			props{
				"type": enum("Project type", validate.ScaffoldTypes),
				"name": str("Project name: letters, digits, '-' or '_'"),
			}, "type", "name"),
		define("generate_docs", "Generate a markdown outline of the functions and classes in a file or folder", false,
			props{"path": str("File or folder to document"), "output_path": str("Write the result here instead of returning it")}, "path"),

		define("finish_task", "Signal that the task is complete", true,
			props{"summary": str("Summary of what was done")}, "summary"),
		define("ask_user", "Ask the user a question and wait for the answer", true,
			props{"question": str("The question to ask")}, "question"),
	}
}

// ExtendedDefinitions are the diff, shell, web, git, codegen, testing,
// security and performance tools.
func ExtendedDefinitions() []ToolDefinition {
	diffOpts := props{
		"format":        enum("Output format (default unified)", validate.DiffFormats),
		"context_lines": number("Unchanged lines around each change (default 3)"),
		"width":         number("Column width for side_by_side (default 60)"),
	}
	with := func(extra props) props {
		p := props{}
		for k, v := range diffOpts {
			p[k] = v
		}
		for k, v := range extra {
			p[k] = v
		}
		return p
	}
	return []ToolDefinition{
		define("diff_files", "Compare two files", true,
			with(props{"path_a": str("Original file"), "path_b": str("Modified file")}), "path_a", "path_b"),
		define("diff_content", "Compare two texts", true,
			with(props{"original": str("Original text"), "modified": str("Modified text")}), "original", "modified"),
		define("apply_patch", "Apply a unified diff to a file", false,
			props{"path": str(pathDesc), "patch": str("Unified diff with @@ hunk headers"), "dry_run": boolean(dryRunDesc)}, "path", "patch"),
		define("semantic_diff", "Compare the functions and classes of two versions of a source file", true,
			props{"path_a": str("Original file"), "path_b": str("Modified file")}, "path_a", "path_b"),

		define("run_command", "Run a shell command in the project", false,
			props{
				"command":     str("The shell command to execute"),
				"working_dir": str("Folder to run in, relative to the project root"),
				"timeout":     number(timeoutDesc + " (1-300, default 30)"),
			}, "command"),
		define("check_command", "Check whether a shell command would be allowed, without running it", true,
			props{"command": str("The shell command to check")}, "command"),
		define("web_fetch", "Fetch a web page and return its readable text", false,
			props{"url": str("http or https URL"), "timeout": number(timeoutDesc + " (1-120, default 30)")}, "url"),

		define("git_status", "Show the working tree status", true, nil),
		define("git_diff", "Show unstaged changes", true,
			props{"path": str("Limit the diff to this path")}),
		define("git_log", "Show recent commits", true,
			props{"count": number("Number of commits (default 10)")}),
		define("git_commit", "Stage all changes and commit them", false,
			props{"message": str("Commit message")}, "message"),
		define("git_branch", "List, create or switch branches", false,
			props{"action": enum("Branch action", validate.BranchActions), "name": str("Branch name (create and switch)")}, "action"),

		define("generate_code", "Generate code from a template", false,
			props{
				"template": enum("Template", validate.CodeTemplates),
				"name":     str("Identifier for the generated code"),
				"language": str("Target language (default javascript)"),
				"path":     str("Write the code to this new file instead of returning it"),
			}, "template", "name"),
		define("run_tests", "Run the project's tests. The runner is detected from project files when no command is given", false,
			props{"command": str("Test command to run instead of the detected one"), "timeout": number(timeoutDesc + " (default 120)")}),
		define("security_scan", "Scan source files for insecure patterns", true,
			props{"path": str(dirDesc), "min_severity": enum("Lowest severity to report", validate.Severities)}),
		define("scan_secrets", "Scan files for hardcoded secrets", true,
			props{"path": str(dirDesc), "custom_patterns": str("Extra regular expressions, separated by commas or newlines")}),
		define("analyze_performance", "Look for common performance problems", true,
			props{"path": str(dirDesc)}),
	}
}
