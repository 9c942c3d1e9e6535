package llm

import "strings"

// OpenAI-compatible tool calling types

// OpenAITool represents a tool definition in OpenAI format
type OpenAITool struct {
	Type     string         `json:"type"` // "function"
	Function OpenAIFunction `json:"function"`
}

// OpenAIFunction represents a function definition
type OpenAIFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"` // JSON Schema
}

// OpenAIToolCall represents a tool call from the model
type OpenAIToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function OpenAIToolCallFn `json:"function"`
}

// OpenAIToolCallFn names the function a tool call invokes.
type OpenAIToolCallFn struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON string
}

// ToolCallResponse contains the model's response with tool calls
type ToolCallResponse struct {
	Content      string           // Text content (may be empty if only tool calls)
	ToolCalls    []OpenAIToolCall // Tool calls requested by the model, in order
	FinishReason string
	Usage        Usage
}

// Done reports whether the model asked for no further tools.
func (r *ToolCallResponse) Done() bool { return len(r.ToolCalls) == 0 }

// Usage is the token accounting of one completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ToolRequestMessage is the message format for tool calling API requests.
// Uses *string for Content to allow null values for assistant messages with tool calls.
type ToolRequestMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []OpenAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

// ConvertMessagesToToolFormat converts internal Message slice to ToolRequestMessage slice
// for use with the OpenAI-compatible tool calling API.
func ConvertMessagesToToolFormat(messages []Message) []ToolRequestMessage {
	result := make([]ToolRequestMessage, 0, len(messages))
	for _, msg := range messages {
		tm := ToolRequestMessage{
			Role:       msg.Role,
			Name:       msg.Name,
			ToolCalls:  msg.ToolCalls,
			ToolCallID: msg.ToolCallID,
		}
		// assistant messages that only call tools carry a null content
		if msg.Role == "assistant" && len(msg.ToolCalls) > 0 && msg.Content == "" {
			tm.Content = nil
		} else {
			content := msg.Content
			tm.Content = &content
		}
		result = append(result, tm)
	}
	return result
}

// ParseSSELine parses a Server-Sent Events line and returns the data payload.
// Returns empty string if line is not a data line or is the [DONE] marker.
func ParseSSELine(line string) string {
	line = strings.TrimSpace(line)
	if line == "" || !strings.HasPrefix(line, "data: ") {
		return ""
	}
	data := strings.TrimPrefix(line, "data: ")
	if data == "[DONE]" {
		return ""
	}
	return data
}
