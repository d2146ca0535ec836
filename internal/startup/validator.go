package startup

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/tools"
)

const (
	// probeTimeout bounds the LLM provider probe.
	probeTimeout = 5 * time.Second

	// slowCheckThreshold flags checks worth a recommendation.
	slowCheckThreshold = 5 * time.Second
)

// Database is the slice of the persistence layer the validator probes.
type Database interface {
	Ping(ctx context.Context) error
	ListCollections(ctx context.Context) ([]string, error)
	DatabaseName() string
}

// Deps are the assembled components under validation. A nil component
// fails its check rather than being skipped: the validator's job is to
// prove the system whole.
type Deps struct {
	Config       *config.Config
	Provider     agent.LLMProvider
	Database     Database
	Tools        *tools.Registry
	Commands     *commands.Registry
	AgentFactory *agent.Factory
	DefaultModel string

	Logger *observability.Logger
}

// Validator runs the startup check suite.
type Validator struct {
	deps   Deps
	logger *observability.Logger
}

// New builds a validator over the assembled dependencies.
func New(deps Deps) *Validator {
	logger := deps.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return &Validator{deps: deps, logger: logger.WithFields("component", "startup")}
}

// result is the raw outcome of one check function.
type result struct {
	status  Status
	message string
	details map[string]any
}

func pass(format string, args ...any) result {
	return result{status: StatusPassed, message: fmt.Sprintf(format, args...)}
}

func fail(format string, args ...any) result {
	return result{status: StatusFailed, message: fmt.Sprintf(format, args...)}
}

func warn(format string, args ...any) result {
	return result{status: StatusWarning, message: fmt.Sprintf(format, args...)}
}

// checkSpec declares one check. Checks listed in after must finish first;
// a failed prerequisite skips the dependent.
type checkSpec struct {
	name     string
	category Category
	critical bool
	after    []string
	run      func(ctx context.Context) result
}

func (v *Validator) specs() []checkSpec {
	return []checkSpec{
		{name: "configuration", category: CategoryConfiguration, critical: true, run: v.checkConfiguration},
		{name: "llm_provider", category: CategoryLLM, critical: true, run: v.checkProvider},
		{name: "database_connectivity", category: CategoryDatabase, critical: true, run: v.checkDatabase},
		{name: "tool_registry", category: CategoryRegistry, critical: true, run: v.checkToolRegistry},
		{name: "command_registry", category: CategoryRegistry, critical: true, run: v.checkCommandRegistry},
		{name: "registry_synchronization", category: CategoryRegistry, critical: true,
			after: []string{"tool_registry", "command_registry"}, run: v.checkRegistrySync},
		{name: "agent_initialization", category: CategoryAgent, critical: true,
			after: []string{"tool_registry"}, run: v.checkAgents},
		{name: "placeholder_scan", category: CategorySystem, run: v.checkPlaceholders},
		{name: "environment", category: CategorySystem, run: v.checkEnvironment},
	}
}

// Run executes all checks. Independent checks run concurrently; a check
// with prerequisites waits for them and is skipped when one failed.
func (v *Validator) Run(ctx context.Context) *Report {
	start := time.Now()
	specs := v.specs()

	// Each check publishes its finished result on a buffered channel so
	// dependents can wait without a second synchronization structure.
	done := make(map[string]chan Check, len(specs))
	for _, s := range specs {
		done[s.name] = make(chan Check, 1)
	}

	results := make([]Check, len(specs))
	var wg sync.WaitGroup
	for i, s := range specs {
		wg.Add(1)
		go func(i int, s checkSpec) {
			defer wg.Done()

			blocked := ""
			for _, dep := range s.after {
				c := <-done[dep]
				done[dep] <- c // put back for any other waiter
				if c.Status == StatusFailed && blocked == "" {
					blocked = dep
				}
			}

			var chk Check
			if blocked != "" {
				chk = Check{
					Name: s.name, Category: s.category, Status: StatusSkipped,
					Message: "prerequisite " + blocked + " failed",
				}
			} else {
				chk = v.execute(ctx, s)
			}
			results[i] = chk
			done[s.name] <- chk
		}(i, s)
	}
	wg.Wait()

	report := assemble(results, time.Since(start))
	v.logger.Info(ctx, "startup validation finished",
		"status", string(report.OverallStatus),
		"failures", len(report.CriticalFailures),
		"warnings", len(report.Warnings),
		"duration_ms", report.TotalDurationMS)
	return report
}

// execute runs one check with panic containment and timing. Non-critical
// checks can never fail the report; their failures become warnings.
func (v *Validator) execute(ctx context.Context, s checkSpec) (chk Check) {
	start := time.Now()
	chk = Check{Name: s.name, Category: s.category}

	defer func() {
		if rec := recover(); rec != nil {
			chk.Status = StatusFailed
			chk.Message = fmt.Sprintf("check panicked: %v", rec)
		}
		if chk.Status == StatusFailed && !s.critical {
			chk.Status = StatusWarning
		}
		chk.DurationMS = time.Since(start).Milliseconds()
	}()

	res := s.run(ctx)
	chk.Status = res.status
	chk.Message = res.message
	chk.Details = res.details
	return chk
}
