package llm

import "context"

// Message represents a chat message
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system", "tool"
	Content string `json:"content"`

	// Set on assistant messages that request tools
	ToolCalls []OpenAIToolCall `json:"tool_calls,omitempty"`
	// Set on tool result messages
	ToolCallID string `json:"tool_call_id,omitempty"`
	Name       string `json:"name,omitempty"`
}

// StreamChunk represents a piece of streaming output
type StreamChunk struct {
	Text  string // Text content
	Done  bool   // True if this is the final chunk
	Error error  // Error if any
}

// Provider is the interface for LLM backends
type Provider interface {
	// Generate produces a response given messages
	Generate(ctx context.Context, messages []Message) (string, error)

	// GenerateStream produces a streaming response
	GenerateStream(ctx context.Context, messages []Message) (<-chan StreamChunk, error)
}

// ToolProvider is a Provider that supports native tool calling.
type ToolProvider interface {
	Provider
	// GenerateWithTools sends a request with tool definitions and returns
	// the model's text and requested tool calls.
	GenerateWithTools(ctx context.Context, messages []Message, tools []OpenAITool) (*ToolCallResponse, error)
}
