package agent

import (
	"context"
	"fmt"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

// knownRoles is the closed set of configurable agent roles.
var knownRoles = map[models.AgentRole]bool{
	models.RoleMessageProcessor:  true,
	models.RoleHelpAssistant:     true,
	models.RolePlayerCoordinator: true,
	models.RoleTeamAdministrator: true,
	models.RoleSquadSelector:     true,
}

// Factory builds the per-role agent set from configuration.
type Factory struct {
	provider  LLMProvider
	registry  *tools.Registry
	formatter *format.Formatter

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// NewFactory wires the shared collaborators every agent gets. Logger may
// not be nil; metrics and tracer may be (tests run unmetered).
func NewFactory(provider LLMProvider, registry *tools.Registry, formatter *format.Formatter,
	logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Factory {
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return &Factory{
		provider:  provider,
		registry:  registry,
		formatter: formatter,
		logger:    logger.WithFields("component", "agent_factory"),
		metrics:   metrics,
		tracer:    tracer,
	}
}

// Build turns agent configuration into the role map the pipeline routes
// against. A configured tool that does not resolve in the registry is a
// startup defect and fails the whole build. A missing message_processor is
// synthesized so routing always has a fallback.
func (f *Factory) Build(cfgs []config.AgentConfig, defaultModel string) (map[models.AgentRole]*Agent, error) {
	agents := make(map[models.AgentRole]*Agent, len(cfgs)+1)

	for _, cfg := range cfgs {
		role := models.AgentRole(cfg.Role)
		if !knownRoles[role] {
			return nil, apperr.Programming(fmt.Sprintf("agent config names unknown role %q", cfg.Role), nil)
		}
		if _, dup := agents[role]; dup {
			return nil, apperr.Programming(fmt.Sprintf("agent role %q configured twice", cfg.Role), nil)
		}

		toolIDs := make([]string, 0, len(cfg.Tools))
		for _, name := range cfg.Tools {
			d, ok := f.registry.Get(name)
			if !ok {
				return nil, apperr.Programming(
					fmt.Sprintf("agent %q references unknown tool %q", cfg.Role, name), nil).
					WithContext("agent_role", cfg.Role).
					WithContext("tool_id", name)
			}
			toolIDs = append(toolIDs, d.ID)
		}
		if len(toolIDs) == 0 {
			toolIDs = f.defaultTools(role)
		}

		model := cfg.Model
		if model == "" {
			model = defaultModel
		}

		agents[role] = &Agent{
			role:      role,
			goal:      cfg.Goal,
			backstory: cfg.Backstory,
			model:     model,
			provider:  f.provider,
			registry:  f.registry,
			toolIDs:   toolIDs,
			formatter: f.formatter,
			logger:    f.logger.WithFields("agent_role", string(role)),
			metrics:   f.metrics,
			tracer:    f.tracer,
		}
	}

	if _, ok := agents[models.RoleMessageProcessor]; !ok {
		agents[models.RoleMessageProcessor] = &Agent{
			role:      models.RoleMessageProcessor,
			goal:      "Handle general questions and route simple requests to the right tool.",
			backstory: "You are the team's general assistant, covering anything the specialists don't.",
			model:     defaultModel,
			provider:  f.provider,
			registry:  f.registry,
			toolIDs:   f.defaultTools(models.RoleMessageProcessor),
			formatter: f.formatter,
			logger:    f.logger.WithFields("agent_role", string(models.RoleMessageProcessor)),
			metrics:   f.metrics,
			tracer:    f.tracer,
		}
		f.logger.Info(context.Background(), "synthesized fallback agent",
			"agent_role", string(models.RoleMessageProcessor))
	}

	return agents, nil
}

// defaultTools is the registry-derived subset for a role with no explicit
// tool list: everything its access control admits.
func (f *Factory) defaultTools(role models.AgentRole) []string {
	descriptors := f.registry.ListForAgent(role)
	ids := make([]string, 0, len(descriptors))
	for _, d := range descriptors {
		ids = append(ids, d.ID)
	}
	return ids
}
