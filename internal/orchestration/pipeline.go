// Package orchestration runs each request through a fixed chain of seven
// stages: intent classification, entity validation, complexity
// assessment, task decomposition, entity-aware routing, execution, and
// aggregation. A stage failure never aborts the chain; only context
// cancellation short-circuits, and even then aggregation still runs so
// the caller always gets a reply.
package orchestration

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

const genericApology = "Sorry, I ran into a problem handling that. Please try again in a moment."

// Pipeline is safe for concurrent use; all per-request state lives on the
// Execution record.
type Pipeline struct {
	classifier Classifier
	commands   *commands.Registry
	tools      *tools.Registry
	agents     map[models.AgentRole]*agent.Agent
	cfg        config.PipelineConfig

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	processed atomic.Uint64
	failures  atomic.Uint64
}

// New wires a pipeline. The agents map must contain message_processor;
// the factory guarantees it.
func New(cfg config.PipelineConfig, classifier Classifier, cmds *commands.Registry, reg *tools.Registry,
	agents map[models.AgentRole]*agent.Agent,
	logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Pipeline {
	if classifier == nil {
		classifier = KeywordClassifier{}
	}
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return &Pipeline{
		classifier: classifier,
		commands:   cmds,
		tools:      reg,
		agents:     agents,
		cfg:        cfg,
		logger:     logger.WithFields("component", "pipeline"),
		metrics:    metrics,
		tracer:     tracer,
	}
}

// Counters returns the monotonic processed and failed request counts.
func (p *Pipeline) Counters() (processed, failed uint64) {
	return p.processed.Load(), p.failures.Load()
}

// Process runs the full chain for one request. The returned execution
// always has seven step results and a non-empty Final reply.
func (p *Pipeline) Process(ctx context.Context, task string, params map[string]any, reqCtx models.RequestContext) *Execution {
	exec := &Execution{
		ReqCtx:     reqCtx,
		Task:       task,
		Parameters: params,
		Steps:      make([]StepResult, 0, len(stageOrder)),
	}

	cancelled := false
	cancelled = p.runStage(ctx, exec, StageIntent, cancelled, func(ctx context.Context) (any, error) {
		intent, err := p.classifier.Classify(ctx, task, reqCtx)
		if err != nil {
			exec.Intent = Intent{Name: IntentUnknown}
			return exec.Intent, err
		}
		exec.Intent = intent
		return intent, nil
	})

	cancelled = p.runStage(ctx, exec, StageValidation, cancelled, func(context.Context) (any, error) {
		exec.Validation = validateEntities(task, reqCtx, p.commands, p.tools, exec.Intent)
		return exec.Validation, nil
	})

	cancelled = p.runStage(ctx, exec, StageComplexity, cancelled, func(context.Context) (any, error) {
		exec.Complexity = assessComplexity(task, exec.Intent, exec.Validation)
		return exec.Complexity, nil
	})

	cancelled = p.runStage(ctx, exec, StageDecomposition, cancelled, func(context.Context) (any, error) {
		exec.Subtasks = decompose(task, exec.Complexity, exec.Intent)
		return exec.Subtasks, nil
	})

	cancelled = p.runStage(ctx, exec, StageRouting, cancelled, func(context.Context) (any, error) {
		exec.Operation = route(exec, p.commands, p.agents)
		return exec.Operation, nil
	})

	p.runStage(ctx, exec, StageExecution, cancelled, func(ctx context.Context) (any, error) {
		reply, role, err := p.execute(ctx, exec)
		exec.Reply = reply
		exec.AgentRole = role
		return reply, err
	})

	// Aggregation always runs so the record is complete and the reply is
	// never empty.
	p.runStage(ctx, exec, StageAggregation, false, func(context.Context) (any, error) {
		agg := p.aggregate(exec)
		exec.Final = agg.Reply
		return agg, nil
	})
	if exec.Final == "" {
		exec.Final = genericApology
	}

	p.processed.Add(1)
	if step := exec.step(StageExecution); step != nil && step.Status == StepFailed {
		p.failures.Add(1)
	}
	return exec
}

// runStage records one step result for stage. When the pipeline is
// already short-circuited, or the context is cancelled on entry, the
// stage is marked failed with reason cancelled and fn never runs.
func (p *Pipeline) runStage(ctx context.Context, exec *Execution, stage string, cancelled bool, fn func(context.Context) (any, error)) bool {
	if cancelled || ctx.Err() != nil {
		exec.Steps = append(exec.Steps, StepResult{Stage: stage, Status: StepFailed, Error: "cancelled"})
		p.metrics.RecordStage(stage, "cancelled", 0)
		return true
	}

	stageCtx, span := p.tracer.TraceStage(ctx, stage)
	start := time.Now()

	result, err := p.runSafely(stageCtx, fn)
	duration := time.Since(start)
	span.End()

	step := StepResult{Stage: stage, Status: StepCompleted, Result: result, Duration: duration}
	status := "success"
	if err != nil {
		step.Status = StepFailed
		step.Error = err.Error()
		status = "error"
		p.logger.Warn(ctx, "pipeline stage failed", "stage", stage, "error", err)
	}
	exec.Steps = append(exec.Steps, step)
	p.metrics.RecordStage(stage, status, duration.Seconds())

	if ctx.Err() != nil {
		return true
	}
	return false
}

// runSafely converts a stage panic into a stage failure.
func (p *Pipeline) runSafely(ctx context.Context, fn func(context.Context) (any, error)) (result any, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("stage panicked: %v", rec)
		}
	}()
	return fn(ctx)
}

// execute dispatches the routed operation, falling back to the
// message_processor agent when the chosen agent may not touch the
// operation's entity type. Errors come back alongside the user-safe
// apology so the step records both.
func (p *Pipeline) execute(ctx context.Context, exec *Execution) (string, models.AgentRole, error) {
	if p.cfg.ExecuteSubtasks && len(exec.Subtasks) > 0 {
		return p.executeSubtasks(ctx, exec)
	}

	op := exec.Operation
	role := op.AgentRole
	if !p.mayHandle(role, op) {
		role = models.RoleMessageProcessor
	}
	a, ok := p.agents[role]
	if !ok {
		return genericApology, role, apperr.Programming("no agent available for role "+string(role), nil)
	}

	res, err := a.Execute(ctx, agent.Task{
		Description: op.Description,
		ToolID:      op.ToolID,
		Args:        op.Parameters,
		Intent:      exec.Intent.Name,
	}, exec.ReqCtx)
	if err != nil {
		return apperr.UserMessage(err), role, err
	}
	if res.RequestContact {
		exec.RequestContact = true
	}
	return res.Text, role, nil
}

// executeSubtasks runs decomposed subtasks sequentially with per-subtask
// agent selection and concatenates the replies.
func (p *Pipeline) executeSubtasks(ctx context.Context, exec *Execution) (string, models.AgentRole, error) {
	var (
		replies  []string
		lastRole models.AgentRole
		firstErr error
	)
	for _, subtask := range exec.Subtasks {
		role := subtask.AgentRole
		a, ok := p.agents[role]
		if !ok {
			role = models.RoleMessageProcessor
			a = p.agents[role]
		}
		if a == nil {
			continue
		}
		lastRole = role

		res, err := a.Execute(ctx, agent.Task{
			Description: subtask.Description,
			Intent:      exec.Intent.Name,
		}, exec.ReqCtx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			replies = append(replies, apperr.UserMessage(err))
			continue
		}
		if res.RequestContact {
			exec.RequestContact = true
		}
		replies = append(replies, res.Text)
	}
	return strings.Join(replies, "\n\n"), lastRole, firstErr
}

// mayHandle checks the routed agent against the operation: the tool's
// access control when a tool is attached, the agent's existence
// otherwise.
func (p *Pipeline) mayHandle(role models.AgentRole, op Operation) bool {
	if _, ok := p.agents[role]; !ok {
		return false
	}
	if op.ToolID == "" {
		return true
	}
	return p.tools.ValidateAccess(op.ToolID, role, op.EntityType)
}

// aggregate builds the final record and reply.
func (p *Pipeline) aggregate(exec *Execution) Aggregate {
	completed, failed := 0, 0
	for _, step := range exec.Steps {
		switch step.Status {
		case StepCompleted:
			completed++
		case StepFailed:
			failed++
		}
	}

	reply := strings.TrimSpace(exec.Reply)
	if reply == "" {
		reply = genericApology
	}
	return Aggregate{
		Reply:      reply,
		Completed:  completed,
		Failed:     failed,
		EntityType: exec.Operation.EntityType,
		AgentRole:  exec.AgentRole,
	}
}
