package main

import (
	"context"
	"sync"
	"time"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/agent/providers"
	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/invite"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/service"
	"github.com/kickai-football/kickai/internal/startup"
	"github.com/kickai-football/kickai/internal/store"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/internal/tools/builtin"
)

// app holds the core components shared by serve and check. The transport
// and pipeline are assembled by serve only, after validation passes.
type app struct {
	cfg     *config.Config
	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer

	store        *store.Store
	factory      *service.Factory
	invite       *invite.Service
	provider     agent.LLMProvider
	agentFactory *agent.Factory
	formatter    *format.Formatter
	tools        *tools.Registry
	commands     *commands.Registry
	sender       *senderHolder

	tracerStop func(context.Context) error
}

// buildCore assembles configuration, observability, storage, registries,
// and the provider. In lenient mode a failed database or provider leaves
// the component nil for the validator to flag; otherwise the error aborts.
func buildCore(ctx context.Context, flags *rootFlags, lenient bool) (*app, error) {
	var cfg *config.Config
	var err error
	if lenient {
		cfg, err = config.LoadLenient(flags.configPath)
	} else {
		cfg, err = config.Load(flags.configPath)
	}
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.Logging.Level = flags.logLevel
	}
	if flags.logFormat != "" {
		cfg.Logging.Format = flags.logFormat
	}

	logger := observability.NewLogger(observability.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	metrics := observability.NewMetrics()
	tracer, tracerStop := observability.NewTracer(observability.TraceConfig{
		ServiceName:    "kickai",
		ServiceVersion: version,
		Environment:    cfg.Tracing.Environment,
		Endpoint:       cfg.Tracing.Endpoint,
		SamplingRate:   cfg.Tracing.SamplingRate,
		EnableInsecure: cfg.Tracing.Insecure,
	})

	a := &app{
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		tracerStop: tracerStop,
		invite:     invite.NewService(cfg.Security.InviteSecretKey, cfg.Security.InviteExpiry),
		formatter:  format.New(cfg.Pipeline.BulletLimit),
		sender:     &senderHolder{},
	}

	a.store, err = store.Connect(ctx, cfg.Database, logger, metrics, tracer)
	if err != nil {
		if !lenient {
			return nil, err
		}
		logger.Warn(ctx, "database unavailable, validation will report it", "error", err)
	}
	if a.store != nil {
		a.factory = service.NewFactory(a.store, cfg.Cache, logger, metrics)
	}

	a.provider, err = providers.New(ctx, cfg.AI)
	if err != nil {
		if !lenient {
			return nil, err
		}
		logger.Warn(ctx, "llm provider unavailable, validation will report it", "error", err)
	}

	a.commands, err = commands.NewInitialized(logger)
	if err != nil {
		return nil, err
	}

	a.tools = tools.NewRegistry(logger, metrics)
	deps := builtin.Deps{
		Teams:       nil,
		Invite:      a.invite,
		Commands:    a.commands,
		Sender:      a.sender,
		Version:     version,
		BotUsername: "",
		StartedAt:   time.Now(),
	}
	if a.factory != nil {
		deps.Services = a.factory.Services
		deps.Teams = a.factory.Teams()
	}
	if err := builtin.Register(a.tools, deps); err != nil {
		return nil, err
	}
	a.tools.Freeze()

	a.agentFactory = agent.NewFactory(a.provider, a.tools, a.formatter, logger, metrics, tracer)
	return a, nil
}

// validatorDeps maps the assembled components into the startup check set.
func (a *app) validatorDeps() startup.Deps {
	var db startup.Database
	if a.store != nil {
		db = a.store
	}
	return startup.Deps{
		Config:       a.cfg,
		Provider:     a.provider,
		Database:     db,
		Tools:        a.tools,
		Commands:     a.commands,
		AgentFactory: a.agentFactory,
		DefaultModel: a.cfg.AI.Model,
		Logger:       a.logger,
	}
}

// shutdown releases the core resources. Safe to call once, late.
func (a *app) shutdown(ctx context.Context) {
	if a.store != nil {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn(ctx, "store close failed", "error", err)
		}
	}
	if a.tracerStop != nil {
		if err := a.tracerStop(ctx); err != nil {
			a.logger.Warn(ctx, "tracer shutdown failed", "error", err)
		}
	}
}

// senderHolder breaks the construction cycle between the tool manifest,
// which needs an announcement sender, and the Telegram adapter, which
// needs the router the tools feed. Tools registered at startup see the
// holder; the adapter is plugged in before polling begins.
type senderHolder struct {
	mu    sync.RWMutex
	inner builtin.Sender
}

func (h *senderHolder) set(s builtin.Sender) {
	h.mu.Lock()
	h.inner = s
	h.mu.Unlock()
}

func (h *senderHolder) SendMessage(ctx context.Context, chatID, text string) error {
	h.mu.RLock()
	s := h.inner
	h.mu.RUnlock()
	if s == nil {
		return apperr.Unavailable("message transport is not running", nil)
	}
	return s.SendMessage(ctx, chatID, text)
}
