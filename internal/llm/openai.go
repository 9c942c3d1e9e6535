package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 2 * time.Minute
)

// ErrNoAPIKey is returned when the provider has no key for an endpoint
// that needs one.
var ErrNoAPIKey = errors.New("API key not configured. Use 'agentcore config set openai_api_key <key>' or set OPENAI_API_KEY")

// APIError is a non-200 response or an error object in the body.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Message)
	}
	return "API error: " + e.Message
}

// OpenAIConfig configures an OpenAI-compatible endpoint.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// RequireKey rejects requests when APIKey is empty. Local proxies
	// usually accept anonymous requests.
	RequireKey bool
}

// OpenAI implements ToolProvider against any OpenAI-compatible
// /chat/completions endpoint.
type OpenAI struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	requireKey bool
	client     *http.Client
	log        *zap.Logger
}

var _ ToolProvider = (*OpenAI)(nil)

// OpenAI API request/response types
type openAIRequest struct {
	Model      string               `json:"model"`
	Messages   []ToolRequestMessage `json:"messages"`
	Tools      []OpenAITool         `json:"tools,omitempty"`
	ToolChoice string               `json:"tool_choice,omitempty"`
	Stream     bool                 `json:"stream,omitempty"`
}

type openAIResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role      string           `json:"role"`
			Content   string           `json:"content"`
			ToolCalls []OpenAIToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage        `json:"usage"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

type openAIStreamResponse struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// NewOpenAI creates a provider from cfg, filling in defaults.
func NewOpenAI(cfg OpenAIConfig, log *zap.Logger) *OpenAI {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &OpenAI{
		APIKey:     cfg.APIKey,
		Model:      cfg.Model,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		Timeout:    cfg.Timeout,
		requireKey: cfg.RequireKey,
		client:     &http.Client{Timeout: cfg.Timeout},
		log:        log,
	}
}

func (o *OpenAI) newRequest(ctx context.Context, body openAIRequest) (*http.Request, error) {
	if o.requireKey && o.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.APIKey)
	}
	return req, nil
}

// complete sends a non-streaming request and returns the first choice.
func (o *OpenAI) complete(ctx context.Context, body openAIRequest) (*openAIResponse, error) {
	req, err := o.newRequest(ctx, body)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(data))}
	}

	var out openAIResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if out.Error != nil {
		return nil, &APIError{Message: out.Error.Message}
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}
	o.log.Debug("completion",
		zap.String("model", o.Model),
		zap.Int("messages", len(body.Messages)),
		zap.Int("tools", len(body.Tools)),
		zap.Int("total_tokens", out.Usage.TotalTokens),
		zap.Duration("duration", time.Since(start)),
	)
	return &out, nil
}

// Generate calls the API and returns the response text.
func (o *OpenAI) Generate(ctx context.Context, messages []Message) (string, error) {
	out, err := o.complete(ctx, openAIRequest{
		Model:    o.Model,
		Messages: ConvertMessagesToToolFormat(messages),
	})
	if err != nil {
		return "", err
	}
	return out.Choices[0].Message.Content, nil
}

// GenerateWithTools calls the API with tool definitions. Tool calls come
// back in the order the model listed them.
func (o *OpenAI) GenerateWithTools(ctx context.Context, messages []Message, tools []OpenAITool) (*ToolCallResponse, error) {
	req := openAIRequest{
		Model:    o.Model,
		Messages: ConvertMessagesToToolFormat(messages),
		Tools:    tools,
	}
	if len(tools) > 0 {
		req.ToolChoice = "auto"
	}
	out, err := o.complete(ctx, req)
	if err != nil {
		return nil, err
	}
	choice := out.Choices[0]
	return &ToolCallResponse{
		Content:      choice.Message.Content,
		ToolCalls:    choice.Message.ToolCalls,
		FinishReason: choice.FinishReason,
		Usage:        out.Usage,
	}, nil
}

// GenerateStream calls the API and streams the response text. The final
// chunk carries the complete text.
func (o *OpenAI) GenerateStream(ctx context.Context, messages []Message) (<-chan StreamChunk, error) {
	req, err := o.newRequest(ctx, openAIRequest{
		Model:    o.Model,
		Messages: ConvertMessagesToToolFormat(messages),
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	chunks := make(chan StreamChunk)
	go func() {
		defer close(chunks)
		defer resp.Body.Close()

		send := func(c StreamChunk) bool {
			select {
			case chunks <- c:
				return true
			case <-ctx.Done():
				return false
			}
		}

		reader := bufio.NewReader(resp.Body)
		var full strings.Builder
	read:
		for {
			line, err := reader.ReadString('\n')
			if err != nil && !errors.Is(err, io.EOF) {
				send(StreamChunk{Error: fmt.Errorf("error reading stream: %w", err)})
				return
			}
			if data := ParseSSELine(line); data != "" {
				var sr openAIStreamResponse
				// malformed chunks are skipped
				if json.Unmarshal([]byte(data), &sr) == nil && len(sr.Choices) > 0 {
					if text := sr.Choices[0].Delta.Content; text != "" {
						full.WriteString(text)
						if !send(StreamChunk{Text: text}) {
							return
						}
					}
					if sr.Choices[0].FinishReason != nil {
						break read
					}
				}
			}
			if err != nil {
				break
			}
		}
		send(StreamChunk{Text: full.String(), Done: true})
	}()
	return chunks, nil
}

// ModelName returns the model being used
func (o *OpenAI) ModelName() string {
	return o.Model
}
