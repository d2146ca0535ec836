// Package providers implements the LLM backends the agents complete
// against: a raw-HTTP Ollama client, OpenAI and Gemini SDK clients, and a
// deterministic mock for tests and offline runs.
package providers

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

	"github.com/google/uuid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/kickai-football/kickai/internal/agent"
)

// OllamaConfig configures the Ollama provider.
type OllamaConfig struct {
	BaseURL      string
	DefaultModel string
	Timeout      time.Duration
	MaxRetries   int
}

// OllamaProvider talks to a local Ollama daemon over its streaming chat
// API. No SDK exists for it, so requests go over raw HTTP with
// line-delimited JSON responses.
type OllamaProvider struct {
	client       *http.Client
	baseURL      string
	defaultModel string
	maxRetries   int
}

var _ agent.LLMProvider = (*OllamaProvider)(nil)

// NewOllamaProvider creates an Ollama provider. An empty base URL targets
// the daemon's default local port.
func NewOllamaProvider(cfg OllamaConfig) *OllamaProvider {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &OllamaProvider{
		client:       &http.Client{Timeout: timeout},
		baseURL:      baseURL,
		defaultModel: strings.TrimSpace(cfg.DefaultModel),
		maxRetries:   maxRetries,
	}
}

func (p *OllamaProvider) Name() string { return "ollama" }

func (p *OllamaProvider) SupportsTools() bool { return true }

// Complete sends a streaming chat request. The initial POST is retried
// with backoff on retryable failures; once streaming starts, errors
// surface as chunk errors.
func (p *OllamaProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	if req == nil {
		return nil, errors.New("request is nil")
	}

	model := strings.TrimSpace(req.Model)
	if model == "" {
		model = p.defaultModel
	}
	if model == "" {
		return nil, NewProviderError("ollama", req.Model, errors.New("model is required"))
	}

	payload := ollamaChatRequest{
		Model:    model,
		Stream:   true,
		Messages: buildOllamaMessages(req),
	}
	if len(req.Tools) > 0 {
		payload.Tools = toOpenAITools(req.Tools)
	}
	if req.MaxTokens > 0 {
		payload.Options = map[string]any{"num_predict": req.MaxTokens}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, NewProviderError("ollama", model, fmt.Errorf("marshal request: %w", err))
	}

	var resp *http.Response
	err = retryWithBackoff(ctx, p.maxRetries, time.Second, func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
		if err != nil {
			return NewProviderError("ollama", model, err)
		}
		httpReq.Header.Set("Content-Type", "application/json")

		r, err := p.client.Do(httpReq)
		if err != nil {
			return NewProviderError("ollama", model, err)
		}
		if r.StatusCode >= http.StatusBadRequest {
			defer r.Body.Close()
			errBody, _ := io.ReadAll(io.LimitReader(r.Body, 8<<10))
			return NewProviderError("ollama", model,
				fmt.Errorf("ollama status %d: %s", r.StatusCode, strings.TrimSpace(string(errBody)))).
				WithStatus(r.StatusCode)
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	chunks := make(chan *agent.CompletionChunk)
	go p.streamResponse(ctx, resp.Body, chunks, model)
	return chunks, nil
}

func (p *OllamaProvider) streamResponse(ctx context.Context, body io.ReadCloser, out chan *agent.CompletionChunk, model string) {
	defer close(out)
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	// Some Ollama builds repeat tool calls across lines; dedupe by ID.
	emitted := map[string]struct{}{}
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			out <- &agent.CompletionChunk{Error: ctx.Err(), Done: true}
			return
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var resp ollamaChatResponse
		if err := json.Unmarshal([]byte(line), &resp); err != nil {
			out <- &agent.CompletionChunk{Error: NewProviderError("ollama", model, fmt.Errorf("decode response: %w", err)), Done: true}
			return
		}
		if resp.Error != "" {
			out <- &agent.CompletionChunk{Error: NewProviderError("ollama", model, errors.New(resp.Error)), Done: true}
			return
		}
		if resp.Message != nil {
			if resp.Message.Content != "" {
				out <- &agent.CompletionChunk{Text: resp.Message.Content}
			}
			for _, tc := range resp.Message.ToolCalls {
				callID := ollamaToolCallKey(tc)
				if callID == "" {
					callID = uuid.NewString()
				}
				if _, ok := emitted[callID]; ok {
					continue
				}
				emitted[callID] = struct{}{}

				toolCall := &agent.ToolCall{
					ID:    callID,
					Name:  strings.TrimSpace(tc.Function.Name),
					Input: json.RawMessage(`{}`),
				}
				if len(tc.Function.Arguments) > 0 {
					toolCall.Input = tc.Function.Arguments
				}
				out <- &agent.CompletionChunk{ToolCall: toolCall}
			}
		}
		if resp.Done {
			out <- &agent.CompletionChunk{
				Done:         true,
				InputTokens:  resp.PromptEvalCount,
				OutputTokens: resp.EvalCount,
			}
			return
		}
	}

	if err := scanner.Err(); err != nil {
		out <- &agent.CompletionChunk{Error: NewProviderError("ollama", model, err), Done: true}
	}
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Tools    []openai.Tool       `json:"tools,omitempty"`
	Stream   bool                `json:"stream"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatMessage struct {
	Role      string           `json:"role"`
	Content   string           `json:"content,omitempty"`
	ToolCalls []ollamaToolCall `json:"tool_calls,omitempty"`
	ToolName  string           `json:"tool_name,omitempty"`
}

type ollamaChatResponse struct {
	Message         *ollamaChatMessage `json:"message"`
	Done            bool               `json:"done"`
	Error           string             `json:"error"`
	EvalCount       int                `json:"eval_count"`
	PromptEvalCount int                `json:"prompt_eval_count"`
}

type ollamaToolCall struct {
	ID       string             `json:"id,omitempty"`
	Type     string             `json:"type,omitempty"`
	Function ollamaToolFunction `json:"function"`
}

type ollamaToolFunction struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// buildOllamaMessages flattens the request into Ollama's chat shape: the
// system prompt leads, assistant tool calls carry function payloads, and
// each tool result becomes its own tool-role message tagged with the tool
// name it answers.
func buildOllamaMessages(req *agent.CompletionRequest) []ollamaChatMessage {
	messages := make([]ollamaChatMessage, 0, len(req.Messages)+1)

	toolNames := map[string]string{}
	for _, msg := range req.Messages {
		for _, tc := range msg.ToolCalls {
			if tc.ID != "" && tc.Name != "" {
				toolNames[tc.ID] = tc.Name
			}
		}
	}

	if system := strings.TrimSpace(req.System); system != "" {
		messages = append(messages, ollamaChatMessage{Role: "system", Content: system})
	}

	for _, msg := range req.Messages {
		role := msg.Role
		if role == "" {
			role = agent.RoleUser
		}
		switch role {
		case agent.RoleAssistant:
			m := ollamaChatMessage{Role: role, Content: msg.Content}
			for _, tc := range msg.ToolCalls {
				args := tc.Input
				if len(args) == 0 {
					args = json.RawMessage(`{}`)
				}
				m.ToolCalls = append(m.ToolCalls, ollamaToolCall{
					ID:       tc.ID,
					Type:     "function",
					Function: ollamaToolFunction{Name: tc.Name, Arguments: args},
				})
			}
			messages = append(messages, m)
		case agent.RoleTool:
			if len(msg.ToolResults) == 0 {
				messages = append(messages, ollamaChatMessage{Role: role, Content: msg.Content})
				continue
			}
			for _, tr := range msg.ToolResults {
				name := tr.Name
				if name == "" {
					name = toolNames[tr.ToolCallID]
				}
				messages = append(messages, ollamaChatMessage{
					Role:     "tool",
					Content:  tr.Content,
					ToolName: name,
				})
			}
		default:
			messages = append(messages, ollamaChatMessage{Role: role, Content: msg.Content})
		}
	}
	return messages
}

func ollamaToolCallKey(tc ollamaToolCall) string {
	if id := strings.TrimSpace(tc.ID); id != "" {
		return id
	}
	name := strings.TrimSpace(tc.Function.Name)
	args := strings.TrimSpace(string(tc.Function.Arguments))
	if name == "" && args == "" {
		return ""
	}
	return name + ":" + args
}
