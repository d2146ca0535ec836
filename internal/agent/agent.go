// Package agent hosts the role-specialized agents that execute routed
// tasks, either by direct tool dispatch or through a provider completion
// loop with tool calling.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

// maxToolIterations bounds the completion loop. Each iteration is one
// provider round trip plus the tool calls it requested.
const maxToolIterations = 4

// Task is one unit of work handed to an agent by the pipeline.
type Task struct {
	// Description is the user-facing request text for LLM-backed tasks.
	Description string
	// ToolID, when set, names a registered tool to dispatch directly
	// without a provider round trip.
	ToolID string
	// Args carries tool arguments for direct dispatch and is offered to
	// the provider as context otherwise.
	Args map[string]any
	// Intent is the classified intent label, included in the system
	// prompt so the agent knows why it was chosen.
	Intent string
}

// Agent executes tasks for one role using its configured tool subset.
type Agent struct {
	role      models.AgentRole
	goal      string
	backstory string
	model     string

	provider  LLMProvider
	registry  *tools.Registry
	toolIDs   []string
	formatter *format.Formatter

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// Role returns the agent's role.
func (a *Agent) Role() models.AgentRole { return a.role }

// ToolIDs returns the agent's configured tool subset.
func (a *Agent) ToolIDs() []string {
	out := make([]string, len(a.toolIDs))
	copy(out, a.toolIDs)
	return out
}

// Result is the chat-ready outcome of one executed task.
type Result struct {
	// Text is the formatted reply.
	Text string
	// RequestContact is set when the tool envelope asked the transport to
	// attach a contact-request keyboard.
	RequestContact bool
}

// Execute runs one task. Tool-backed tasks dispatch directly; everything
// else goes through the provider completion loop.
func (a *Agent) Execute(ctx context.Context, task Task, reqCtx models.RequestContext) (Result, error) {
	if task.ToolID != "" {
		return a.dispatch(ctx, task, reqCtx)
	}
	return a.complete(ctx, task, reqCtx)
}

// dispatch invokes a registered tool without a provider round trip.
func (a *Agent) dispatch(ctx context.Context, task Task, reqCtx models.RequestContext) (Result, error) {
	callable, ok := a.registry.Callable(task.ToolID)
	if !ok {
		return Result{}, apperr.Programming(fmt.Sprintf("agent %s routed to unknown tool %q", a.role, task.ToolID), nil).
			WithContext("agent_role", string(a.role))
	}

	ctx, span := a.tracer.TraceToolExecution(ctx, task.ToolID)
	defer span.End()

	raw := callable(ctx, reqCtx, task.Args)
	return Result{
		Text:           a.formatter.Reply(raw),
		RequestContact: envelopeRequestsContact(raw),
	}, nil
}

// envelopeRequestsContact inspects a raw tool envelope for the
// contact-button marker before the formatter suppresses it.
func envelopeRequestsContact(raw string) bool {
	env, ok := models.ParseEnvelope(raw)
	if !ok {
		return false
	}
	data, ok := env.Data.(map[string]any)
	if !ok {
		return false
	}
	v, ok := data[models.MetaNeedsContactButton].(bool)
	return ok && v
}

// complete runs the provider loop: stream a completion, execute any tool
// calls it requests, feed the results back, and return the final text.
func (a *Agent) complete(ctx context.Context, task Task, reqCtx models.RequestContext) (Result, error) {
	req := &CompletionRequest{
		Model:    a.model,
		System:   a.systemPrompt(reqCtx),
		Messages: []Message{{Role: RoleUser, Content: task.Description}},
	}
	if a.provider.SupportsTools() {
		req.Tools = a.toolSpecs()
	}

	for iteration := 0; iteration < maxToolIterations; iteration++ {
		text, calls, usage, err := a.stream(ctx, req)
		if err != nil {
			a.metrics.RecordError("agent", "llm_request_failed")
			return Result{}, apperr.Unavailable("The assistant is temporarily unavailable. Please try again shortly.", err).
				WithContext("agent_role", string(a.role)).
				WithContext("provider", a.provider.Name())
		}
		a.metrics.RecordLLMRequest(a.provider.Name(), a.model, "success", usage.seconds, usage.input, usage.output)

		if len(calls) == 0 {
			reply := strings.TrimSpace(text)
			if reply == "" {
				reply = "Sorry, I couldn't come up with an answer for that. Try /help to see what I can do."
			}
			return Result{Text: a.formatter.Reply(reply)}, nil
		}

		req.Messages = append(req.Messages, Message{Role: RoleAssistant, Content: text, ToolCalls: calls})
		results := make([]ToolResult, 0, len(calls))
		for _, call := range calls {
			results = append(results, a.runToolCall(ctx, call, reqCtx))
		}
		req.Messages = append(req.Messages, Message{Role: RoleTool, ToolResults: results})
	}

	a.logger.Warn(ctx, "completion loop hit iteration limit", "agent_role", string(a.role))
	return Result{Text: a.formatter.Reply(
		"I couldn't finish working through that request. Try breaking it into smaller steps.")}, nil
}

type usageReport struct {
	seconds float64
	input   int
	output  int
}

// stream drains one completion, accumulating text and tool calls. A chunk
// carrying Error aborts the whole call.
func (a *Agent) stream(ctx context.Context, req *CompletionRequest) (string, []ToolCall, usageReport, error) {
	start := time.Now()

	ctx, span := a.tracer.TraceLLMRequest(ctx, a.provider.Name(), a.model)
	defer span.End()

	ch, err := a.provider.Complete(ctx, req)
	if err != nil {
		return "", nil, usageReport{seconds: time.Since(start).Seconds()}, err
	}

	var (
		text  strings.Builder
		calls []ToolCall
		usage usageReport
	)
	for chunk := range ch {
		if chunk.Error != nil {
			usage.seconds = time.Since(start).Seconds()
			return "", nil, usage, chunk.Error
		}
		text.WriteString(chunk.Text)
		if chunk.ToolCall != nil {
			calls = append(calls, *chunk.ToolCall)
		}
		if chunk.InputTokens > 0 {
			usage.input = chunk.InputTokens
		}
		if chunk.OutputTokens > 0 {
			usage.output = chunk.OutputTokens
		}
	}
	usage.seconds = time.Since(start).Seconds()

	select {
	case <-ctx.Done():
		return "", nil, usage, ctx.Err()
	default:
	}
	return text.String(), calls, usage, nil
}

// runToolCall executes one requested tool call. Unknown or inaccessible
// tools produce an error result rather than failing the loop, so the
// provider can recover.
func (a *Agent) runToolCall(ctx context.Context, call ToolCall, reqCtx models.RequestContext) ToolResult {
	result := ToolResult{ToolCallID: call.ID, Name: call.Name}

	if !a.allows(call.Name) {
		result.Content = fmt.Sprintf("tool %q is not available to this agent", call.Name)
		result.IsError = true
		return result
	}
	callable, ok := a.registry.Callable(call.Name)
	if !ok {
		result.Content = fmt.Sprintf("tool %q is not registered", call.Name)
		result.IsError = true
		return result
	}

	var args map[string]any
	if len(call.Input) > 0 {
		if err := json.Unmarshal(call.Input, &args); err != nil {
			result.Content = fmt.Sprintf("tool arguments are not a JSON object: %v", err)
			result.IsError = true
			return result
		}
	}

	toolCtx, span := a.tracer.TraceToolExecution(ctx, call.Name)
	out := callable(toolCtx, reqCtx, args)
	span.End()

	result.Content = out
	if env, ok := models.ParseEnvelope(out); ok && env.Status == models.StatusError {
		result.IsError = true
	}
	return result
}

// allows reports whether name resolves to a tool in the agent's subset.
func (a *Agent) allows(name string) bool {
	d, ok := a.registry.Get(name)
	if !ok {
		return false
	}
	for _, id := range a.toolIDs {
		if id == d.ID {
			return true
		}
	}
	return false
}

// toolSpecs converts the agent's tool subset into provider declarations.
func (a *Agent) toolSpecs() []ToolSpec {
	specs := make([]ToolSpec, 0, len(a.toolIDs))
	for _, id := range a.toolIDs {
		d, ok := a.registry.Get(id)
		if !ok || !d.Enabled {
			continue
		}
		spec := ToolSpec{Name: d.ID, Description: d.Description}
		if len(d.ContextSchema) > 0 {
			spec.Schema = json.RawMessage(d.ContextSchema)
		}
		specs = append(specs, spec)
	}
	return specs
}

// systemPrompt assembles the role persona plus a compact context block so
// the provider knows who is asking and from where.
func (a *Agent) systemPrompt(reqCtx models.RequestContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are the %s agent for a Sunday-league football team.\n", a.role)
	if a.goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", a.goal)
	}
	if a.backstory != "" {
		fmt.Fprintf(&b, "Background: %s\n", a.backstory)
	}
	b.WriteString("Answer in plain text suitable for a chat message. Use the provided tools for any team data; never invent players, matches, or IDs.\n")

	b.WriteString("\nRequest context:\n")
	fmt.Fprintf(&b, "- team: %s\n", reqCtx.TeamID)
	fmt.Fprintf(&b, "- chat type: %s\n", reqCtx.ChatType)
	if reqCtx.DisplayName != "" {
		fmt.Fprintf(&b, "- user: %s\n", reqCtx.DisplayName)
	}
	fmt.Fprintf(&b, "- registered player: %t\n", reqCtx.IsPlayer)
	fmt.Fprintf(&b, "- team member: %t\n", reqCtx.IsTeamMember)
	fmt.Fprintf(&b, "- admin: %t\n", reqCtx.IsAdmin)
	return b.String()
}
