package tools

// JSONSchema represents OpenAI-style function parameters
type JSONSchema struct {
	Type        string                 `json:"type"`
	Description string                 `json:"description,omitempty"`
	Properties  map[string]*JSONSchema `json:"properties,omitempty"`
	Required    []string               `json:"required,omitempty"`
	Enum        []string               `json:"enum,omitempty"`
}

// ToolDefinition is the structured tool definition (like OpenAI)
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *JSONSchema `json:"parameters"`
	// Basic tools are read-only and advertised in non-agentic mode.
	Basic bool `json:"-"`
}

// ToolCall is one invocation as it arrives from the model: a name and the
// raw JSON argument object.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolResult represents the output of a tool execution. Kind is for
// programmatic consumers only and never leaves the process.
type ToolResult struct {
	Success bool      `json:"success"`
	Output  string    `json:"output"`
	Error   string    `json:"error,omitempty"`
	Kind    ErrorKind `json:"-"`
}

// OK returns a successful result.
func OK(output string) ToolResult {
	return ToolResult{Success: true, Output: output}
}

// Fail returns a failed result of the given kind.
func Fail(kind ErrorKind, msg string) ToolResult {
	return ToolResult{Success: false, Error: msg, Kind: kind}
}
