package agent

import (
	"context"
	"encoding/json"
)

// LLMProvider streams one completion per call. Implementations live in the
// providers subpackage; the agent core only consumes the chunk stream.
type LLMProvider interface {
	// Complete starts a completion and returns a channel of chunks. The
	// channel is closed after the terminal chunk (Done or Error set).
	Complete(ctx context.Context, req *CompletionRequest) (<-chan *CompletionChunk, error)

	// Name identifies the provider for logs and metrics.
	Name() string

	// SupportsTools reports whether the provider can emit tool calls.
	SupportsTools() bool
}

// CompletionRequest is a provider-neutral completion call.
type CompletionRequest struct {
	Model     string
	System    string
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int
}

// Message is one turn of the conversation being completed.
type Message struct {
	// Role is user, assistant, or tool.
	Role string
	// Content is the text of the turn, empty for pure tool-call turns.
	Content string
	// ToolCalls carries the calls an assistant turn requested.
	ToolCalls []ToolCall
	// ToolResults carries the outputs a tool turn returns.
	ToolResults []ToolResult
}

// ToolCall is a provider request to run one tool.
type ToolCall struct {
	ID    string
	Name  string
	Input json.RawMessage
}

// ToolResult is the outcome of one executed tool call, fed back to the
// provider on the next iteration.
type ToolResult struct {
	ToolCallID string
	Name       string
	Content    string
	IsError    bool
}

// ToolSpec declares one callable tool to the provider.
type ToolSpec struct {
	Name        string
	Description string
	// Schema is a JSON Schema object describing the tool's arguments.
	// Empty means the tool takes no arguments.
	Schema json.RawMessage
}

// CompletionChunk is one streamed fragment of a completion.
type CompletionChunk struct {
	// Text is incremental output text.
	Text string
	// ToolCall is set when the provider requests a tool invocation.
	ToolCall *ToolCall
	// Done marks the final chunk of a successful completion.
	Done bool
	// Error marks a failed completion. No further chunks follow.
	Error error
	// Token counts are reported on the terminal chunk when the provider
	// exposes usage.
	InputTokens  int
	OutputTokens int
}

// Role strings for Message.Role.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)
