package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kickai-football/kickai/internal/agent"
)

// MockScript is one canned behavior: when the latest user message
// contains Match, the provider emits either the tool call or the text.
type MockScript struct {
	// Match is a case-insensitive substring of the user message.
	Match string
	// ToolName, when set, emits a tool call with ToolArgs on the first
	// round and Reply on the round after the tool result comes back.
	ToolName string
	ToolArgs map[string]any
	// Reply is the text to emit.
	Reply string
}

// MockProvider is a deterministic in-process provider for tests and
// offline runs. It never touches the network.
type MockProvider struct {
	mu       sync.Mutex
	scripts  []MockScript
	requests []*agent.CompletionRequest

	// Err, when set, fails every Complete call.
	Err error
}

var _ agent.LLMProvider = (*MockProvider)(nil)

// NewMockProvider creates a mock with an optional script table. Requests
// matching no script echo a canned acknowledgement.
func NewMockProvider(scripts ...MockScript) *MockProvider {
	return &MockProvider{scripts: scripts}
}

func (p *MockProvider) Name() string { return "mock" }

func (p *MockProvider) SupportsTools() bool { return true }

// Requests returns the completion requests seen so far, in order.
func (p *MockProvider) Requests() []*agent.CompletionRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*agent.CompletionRequest, len(p.requests))
	copy(out, p.requests)
	return out
}

// Complete resolves the scripted response for the request and streams it
// as chunks.
func (p *MockProvider) Complete(ctx context.Context, req *agent.CompletionRequest) (<-chan *agent.CompletionChunk, error) {
	p.mu.Lock()
	if p.Err != nil {
		err := p.Err
		p.mu.Unlock()
		return nil, NewProviderError("mock", req.Model, err)
	}
	p.requests = append(p.requests, req)
	script, hasResult := p.resolve(req)
	p.mu.Unlock()

	chunks := make(chan *agent.CompletionChunk, 4)
	go func() {
		defer close(chunks)
		select {
		case <-ctx.Done():
			chunks <- &agent.CompletionChunk{Error: ctx.Err(), Done: true}
			return
		default:
		}

		switch {
		case script == nil:
			chunks <- &agent.CompletionChunk{Text: "I'm a mock assistant; I can only follow my script."}
		case script.ToolName != "" && !hasResult:
			args, err := json.Marshal(script.ToolArgs)
			if err != nil {
				args = []byte("{}")
			}
			chunks <- &agent.CompletionChunk{ToolCall: &agent.ToolCall{
				ID:    fmt.Sprintf("mock_call_%s", script.ToolName),
				Name:  script.ToolName,
				Input: args,
			}}
		case script.Reply != "":
			chunks <- &agent.CompletionChunk{Text: script.Reply}
		default:
			chunks <- &agent.CompletionChunk{Text: "Done."}
		}
		chunks <- &agent.CompletionChunk{Done: true, InputTokens: 1, OutputTokens: 1}
	}()
	return chunks, nil
}

// resolve finds the script for the latest user message and reports
// whether a tool result is already in the conversation, which flips
// tool-call scripts into their final reply.
func (p *MockProvider) resolve(req *agent.CompletionRequest) (*MockScript, bool) {
	var lastUser string
	hasResult := false
	for _, msg := range req.Messages {
		if msg.Role == agent.RoleUser || msg.Role == "" {
			lastUser = msg.Content
		}
		if len(msg.ToolResults) > 0 {
			hasResult = true
		}
	}
	for i := range p.scripts {
		if strings.Contains(strings.ToLower(lastUser), strings.ToLower(p.scripts[i].Match)) {
			return &p.scripts[i], hasResult
		}
	}
	return nil, hasResult
}
