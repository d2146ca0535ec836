package orchestration

import (
	"time"

	"github.com/kickai-football/kickai/pkg/models"
)

// StepStatus is the lifecycle of one pipeline stage run.
type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
)

// Stage names, in execution order.
const (
	StageIntent        = "intent_classification"
	StageValidation    = "entity_validation"
	StageComplexity    = "complexity_assessment"
	StageDecomposition = "task_decomposition"
	StageRouting       = "entity_routing"
	StageExecution     = "execution"
	StageAggregation   = "aggregation"
)

// stageOrder is the fixed chain; every execution records exactly one step
// per entry.
var stageOrder = []string{
	StageIntent,
	StageValidation,
	StageComplexity,
	StageDecomposition,
	StageRouting,
	StageExecution,
	StageAggregation,
}

// StepResult is the recorded outcome of one stage.
type StepResult struct {
	Stage    string
	Status   StepStatus
	Result   any
	Error    string
	Duration time.Duration
}

// Intent is the classified purpose of a request.
type Intent struct {
	Name       string
	Confidence float64
	Entities   []string
}

// Intent names produced by the classifiers.
const (
	IntentHelpRequest    = "help_request"
	IntentStatusInquiry  = "status_inquiry"
	IntentRegistration   = "registration"
	IntentListRequest    = "list_request"
	IntentGeneralInquiry = "general_inquiry"
	IntentUnknown        = "unknown"
)

// ValidationResult is the entity validation stage's verdict.
type ValidationResult struct {
	IsValid       bool
	EntityType    models.EntityType
	ErrorMessage  string
	SuggestedRole models.AgentRole
}

// ComplexityLevel buckets a request by how much work it implies.
type ComplexityLevel string

const (
	ComplexityLow      ComplexityLevel = "low"
	ComplexityMedium   ComplexityLevel = "medium"
	ComplexityHigh     ComplexityLevel = "high"
	ComplexityVeryHigh ComplexityLevel = "very_high"
)

// Complexity is the assessment stage's output.
type Complexity struct {
	Level     ComplexityLevel
	Score     float64
	Reasoning string
}

// Subtask is one advisory unit of a decomposed request.
type Subtask struct {
	TaskID               string
	Description          string
	RequiredCapabilities []string
	AgentRole            models.AgentRole
	EstimatedDuration    time.Duration
}

// Operation is the entity operation context the routing stage builds for
// execution.
type Operation struct {
	Description string
	AgentRole   models.AgentRole
	// ToolID is set for deterministic command dispatch; empty sends the
	// request through the agent's completion loop.
	ToolID     string
	Parameters map[string]any
	EntityType models.EntityType
	Validation ValidationResult
}

// Aggregate is the final record the aggregation stage produces.
type Aggregate struct {
	Reply      string
	Completed  int
	Failed     int
	EntityType models.EntityType
	AgentRole  models.AgentRole
}

// Execution is the per-request record threaded through the stages. It
// lives for exactly one request.
type Execution struct {
	ReqCtx models.RequestContext
	// Task is the text under processing: the command name or the raw
	// message.
	Task string
	// Parameters carry command arguments and contact metadata.
	Parameters map[string]any

	Intent     Intent
	Validation ValidationResult
	Complexity Complexity
	Subtasks   []Subtask
	Operation  Operation

	Steps     []StepResult
	AgentRole models.AgentRole
	// Reply is the raw execution-stage reply.
	Reply string
	// Final is the aggregated reply returned to the caller. Never empty
	// after Process returns.
	Final string
	// RequestContact asks the transport to attach a contact-request
	// keyboard to the reply.
	RequestContact bool
}

// step returns the recorded result for a stage, if present.
func (e *Execution) step(stage string) *StepResult {
	for i := range e.Steps {
		if e.Steps[i].Stage == stage {
			return &e.Steps[i]
		}
	}
	return nil
}
