package orchestration

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/agent/providers"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

func testLogger() *observability.Logger {
	return observability.NewLogger(observability.LogConfig{Level: "error"})
}

func testReqCtx(t *testing.T, text string) models.RequestContext {
	t.Helper()
	reqCtx, err := models.NewRequestContext(models.ContextParams{
		TelegramID:  7,
		Username:    "sam",
		DisplayName: "Sam",
		TeamID:      "t1",
		ChatID:      "-100",
		ChatType:    models.ChatTypeMain,
		MessageText: &text,
		IsPlayer:    true,
		Origin:      models.OriginTelegramMessage,
	})
	if err != nil {
		t.Fatalf("NewRequestContext: %v", err)
	}
	return reqCtx
}

func testToolRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg := tools.NewRegistry(testLogger(), nil)

	register := func(d tools.Descriptor) {
		t.Helper()
		if err := reg.Register(d); err != nil {
			t.Fatalf("register %s: %v", d.ID, err)
		}
	}
	register(tools.Descriptor{
		ID:          "list_players",
		Description: "List players.",
		Type:        tools.TypePlayerMgmt,
		Enabled:     true,
		EntityTypes: []models.EntityType{models.EntityPlayer},
		AccessControl: map[models.AgentRole][]models.EntityType{
			models.RoleMessageProcessor:  {models.EntityPlayer},
			models.RolePlayerCoordinator: {models.EntityPlayer},
		},
		Handler: func(_ context.Context, _ models.RequestContext, _ map[string]any) string {
			return models.SuccessEnvelope("2 player(s): John, Jane", nil)
		},
	})
	register(tools.Descriptor{
		ID:          "approve_player",
		Description: "Approve a player.",
		Type:        tools.TypePlayerMgmt,
		Enabled:     true,
		EntityTypes: []models.EntityType{models.EntityPlayer},
		AccessControl: map[models.AgentRole][]models.EntityType{
			models.RolePlayerCoordinator: {models.EntityPlayer},
		},
		Handler: func(_ context.Context, _ models.RequestContext, _ map[string]any) string {
			return models.SuccessEnvelope("approved", nil)
		},
	})
	return reg
}

func testCommandRegistry(t *testing.T) *commands.Registry {
	t.Helper()
	reg := commands.New(testLogger())
	register := func(d commands.Descriptor) {
		t.Helper()
		if err := reg.Register(d); err != nil {
			t.Fatalf("register %s: %v", d.Name, err)
		}
	}
	register(commands.Descriptor{
		Name:        "/list",
		Feature:     "player_management",
		Permission:  models.PermissionPlayer,
		ChatTypes:   []models.ChatType{models.ChatTypeMain, models.ChatTypeLeadership},
		Description: "List players",
		ToolID:      "list_players",
	})
	register(commands.Descriptor{
		Name:        "/approve",
		Feature:     "player_management",
		Permission:  models.PermissionAdmin,
		ChatTypes:   []models.ChatType{models.ChatTypeLeadership},
		Description: "Approve a player",
		ToolID:      "approve_player",
	})
	reg.Freeze()
	return reg
}

func testAgents(t *testing.T, reg *tools.Registry, provider agent.LLMProvider) map[models.AgentRole]*agent.Agent {
	t.Helper()
	factory := agent.NewFactory(provider, reg, format.New(0), testLogger(), nil, nil)
	agents, err := factory.Build([]config.AgentConfig{
		{Role: "player_coordinator", Tools: []string{"list_players", "approve_player"}},
	}, "test-model")
	if err != nil {
		t.Fatalf("Build agents: %v", err)
	}
	return agents
}

func testPipeline(t *testing.T, provider agent.LLMProvider, cfg config.PipelineConfig) *Pipeline {
	t.Helper()
	toolReg := testToolRegistry(t)
	return New(cfg, nil, testCommandRegistry(t), toolReg, testAgents(t, toolReg, provider), testLogger(), nil, nil)
}

func TestProcessRecordsSevenSteps(t *testing.T) {
	p := testPipeline(t, providers.NewMockProvider(), config.PipelineConfig{})
	exec := p.Process(context.Background(), "/list", nil, testReqCtx(t, "/list"))

	if len(exec.Steps) != len(stageOrder) {
		t.Fatalf("len(Steps) = %d, want %d", len(exec.Steps), len(stageOrder))
	}
	for i, stage := range stageOrder {
		if exec.Steps[i].Stage != stage {
			t.Errorf("step %d = %s, want %s", i, exec.Steps[i].Stage, stage)
		}
	}
	if !strings.Contains(exec.Final, "2 player(s)") {
		t.Errorf("Final = %q, want the tool reply", exec.Final)
	}
	if exec.AgentRole != models.RolePlayerCoordinator {
		t.Errorf("AgentRole = %s, want player_coordinator", exec.AgentRole)
	}
}

// failingClassifier always errors; the pipeline must degrade to unknown
// intent and keep going.
type failingClassifier struct{}

func (failingClassifier) Classify(context.Context, string, models.RequestContext) (Intent, error) {
	return Intent{}, errors.New("classifier exploded")
}

func TestStageFailureContinues(t *testing.T) {
	toolReg := testToolRegistry(t)
	p := New(config.PipelineConfig{}, failingClassifier{}, testCommandRegistry(t), toolReg,
		testAgents(t, toolReg, providers.NewMockProvider()), testLogger(), nil, nil)

	exec := p.Process(context.Background(), "/list", nil, testReqCtx(t, "/list"))

	if len(exec.Steps) != len(stageOrder) {
		t.Fatalf("len(Steps) = %d, want %d", len(exec.Steps), len(stageOrder))
	}
	intentStep := exec.step(StageIntent)
	if intentStep.Status != StepFailed {
		t.Errorf("intent step status = %s, want failed", intentStep.Status)
	}
	if exec.Intent.Name != IntentUnknown {
		t.Errorf("Intent = %s, want unknown", exec.Intent.Name)
	}
	if !strings.Contains(exec.Final, "2 player(s)") {
		t.Errorf("Final = %q; execution should still succeed", exec.Final)
	}
}

func TestCancelledContextShortCircuits(t *testing.T) {
	p := testPipeline(t, providers.NewMockProvider(), config.PipelineConfig{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	exec := p.Process(ctx, "/list", nil, testReqCtx(t, "/list"))

	if len(exec.Steps) != len(stageOrder) {
		t.Fatalf("len(Steps) = %d, want %d", len(exec.Steps), len(stageOrder))
	}
	for _, stage := range stageOrder[:len(stageOrder)-1] {
		step := exec.step(stage)
		if step.Status != StepFailed || step.Error != "cancelled" {
			t.Errorf("%s = %s/%s, want failed/cancelled", stage, step.Status, step.Error)
		}
	}
	if exec.step(StageAggregation).Status != StepCompleted {
		t.Error("aggregation should still run")
	}
	if exec.Final == "" {
		t.Error("Final must never be empty")
	}
}

func TestNaturalLanguageGoesToProvider(t *testing.T) {
	provider := providers.NewMockProvider(providers.MockScript{
		Match: "training",
		Reply: "Training is on Tuesday.",
	})
	p := testPipeline(t, provider, config.PipelineConfig{})

	exec := p.Process(context.Background(), "when is training?", nil, testReqCtx(t, "when is training?"))
	if exec.Final != "Training is on Tuesday." {
		t.Errorf("Final = %q", exec.Final)
	}
	if exec.AgentRole != models.RoleMessageProcessor {
		t.Errorf("AgentRole = %s, want message_processor fallback", exec.AgentRole)
	}
}

func TestProviderFailureYieldsApology(t *testing.T) {
	provider := providers.NewMockProvider()
	provider.Err = errors.New("wired to fail")
	p := testPipeline(t, provider, config.PipelineConfig{})

	exec := p.Process(context.Background(), "tell me something", nil, testReqCtx(t, "tell me something"))

	execStep := exec.step(StageExecution)
	if execStep.Status != StepFailed {
		t.Errorf("execution step = %s, want failed", execStep.Status)
	}
	if !strings.Contains(exec.Final, "Sorry") {
		t.Errorf("Final = %q, want a user-safe apology", exec.Final)
	}

	_, failed := p.Counters()
	if failed != 1 {
		t.Errorf("failed counter = %d, want 1", failed)
	}
}

func TestSubtaskExecution(t *testing.T) {
	provider := providers.NewMockProvider(
		providers.MockScript{Match: "register", Reply: "Registered."},
		providers.MockScript{Match: "fixtures", Reply: "Two fixtures coming up."},
	)
	p := testPipeline(t, provider, config.PipelineConfig{ExecuteSubtasks: true})

	// Long enough, with conjunctions, to assess high and decompose.
	task := "please register my friend as a new player and then show me all the upcoming fixtures and availability"
	exec := p.Process(context.Background(), task, nil, testReqCtx(t, task))

	if len(exec.Subtasks) < 2 {
		t.Fatalf("subtasks = %d, want >= 2", len(exec.Subtasks))
	}
	if !strings.Contains(exec.Final, "Registered.") || !strings.Contains(exec.Final, "fixtures") {
		t.Errorf("Final = %q, want concatenated subtask replies", exec.Final)
	}
}

func TestDecompositionAdvisoryByDefault(t *testing.T) {
	provider := providers.NewMockProvider(providers.MockScript{Match: "register", Reply: "One answer."})
	p := testPipeline(t, provider, config.PipelineConfig{})

	task := "please register my friend as a new player and then show me all the upcoming fixtures and availability"
	exec := p.Process(context.Background(), task, nil, testReqCtx(t, task))

	if len(exec.Subtasks) < 2 {
		t.Fatalf("subtasks = %d, want >= 2 (still produced)", len(exec.Subtasks))
	}
	if exec.Final != "One answer." {
		t.Errorf("Final = %q; default config must run the whole request once", exec.Final)
	}
}
