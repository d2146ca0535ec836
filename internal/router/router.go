// Package router bridges the Telegram transport and the orchestration
// pipeline: it builds the request context, snapshots the caller's
// permissions, resolves commands, and scripts the replies that never
// reach an agent (unknown command, wrong chat, permission denied).
package router

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/internal/orchestration"
	"github.com/kickai-football/kickai/internal/service"
	"github.com/kickai-football/kickai/internal/telegram"
	"github.com/kickai-football/kickai/pkg/models"
)

const (
	// DefaultRequestTimeout bounds one update end to end.
	DefaultRequestTimeout = 30 * time.Second

	timeoutApology = "Sorry, that took too long to process. Please try again in a moment."
	noTeamReply    = "This chat isn't linked to a team yet. Ask a team administrator to set it up."
	genericApology = "Sorry, I ran into a problem handling that. Please try again in a moment."
)

// ServiceResolver hands out the per-team service bundle for the resolved
// tenant.
type ServiceResolver func(teamID string) *service.Services

// Router turns inbound updates into pipeline executions. It holds no
// per-request state and is safe for concurrent use.
type Router struct {
	teams    *service.TeamService
	services ServiceResolver
	commands *commands.Registry
	pipeline *orchestration.Pipeline
	timeout  time.Duration

	logger  *observability.Logger
	metrics *observability.Metrics
	tracer  *observability.Tracer
}

// New wires a router. A zero timeout falls back to DefaultRequestTimeout.
func New(teams *service.TeamService, services ServiceResolver, cmds *commands.Registry,
	pipeline *orchestration.Pipeline, timeout time.Duration,
	logger *observability.Logger, metrics *observability.Metrics, tracer *observability.Tracer) *Router {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return &Router{
		teams:    teams,
		services: services,
		commands: cmds,
		pipeline: pipeline,
		timeout:  timeout,
		logger:   logger.WithFields("component", "router"),
		metrics:  metrics,
		tracer:   tracer,
	}
}

// Handle processes one update end to end and returns the reply. It never
// panics outward and never returns an empty reply for a handled update.
func (r *Router) Handle(ctx context.Context, u telegram.Update) (resp telegram.Response) {
	requestID := uuid.NewString()
	log := r.logger.WithFields("request_id", requestID, "telegram_id", u.TelegramID)

	defer func() {
		if rec := recover(); rec != nil {
			log.Error(ctx, "update handling panicked", "panic", fmt.Sprint(rec))
			r.metrics.RecordError("router", "panic")
			resp = telegram.Response{Text: genericApology}
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	reqCtx, scripted, err := r.buildContext(ctx, u)
	if err != nil {
		log.Error(ctx, "request context build failed", "error", err)
		r.metrics.RecordError("router", "context_build_failed")
		return telegram.Response{Text: apperr.UserMessage(err)}
	}
	if scripted != "" {
		return telegram.Response{Text: scripted}
	}

	ctx, span := r.tracer.TraceUpdate(ctx, string(reqCtx.ChatType), reqCtx.TeamID, requestID)
	defer span.End()

	if u.Contact != nil {
		return r.handleContact(ctx, u, reqCtx)
	}

	text := strings.TrimSpace(u.Text)
	if strings.HasPrefix(text, "/") {
		return r.handleCommand(ctx, log, text, reqCtx)
	}

	exec := r.pipeline.Process(ctx, text, nil, reqCtx)
	return r.respond(ctx, exec)
}

// buildContext maps the update into a RequestContext: tenant and chat
// type from the team record, permission flags from the domain services.
// The scripted return carries a ready reply for chats no team owns.
func (r *Router) buildContext(ctx context.Context, u telegram.Update) (models.RequestContext, string, error) {
	chatID := strconv.FormatInt(u.ChatID, 10)

	var chatType models.ChatType
	team, err := r.teams.ByChatID(ctx, chatID)
	switch {
	case err == nil:
		chatType = r.teams.ChatTypeFor(team, chatID)
	case apperr.CodeOf(err) == apperr.CodeNotFound:
		// Direct messages carry the user's chat ID, which no team record
		// lists. Serve them under the deployment's team as private.
		teams, lerr := r.teams.List(ctx)
		if lerr != nil {
			return models.RequestContext{}, "", lerr
		}
		if len(teams) == 0 {
			return models.RequestContext{}, noTeamReply, nil
		}
		team = teams[0]
		chatType = models.ChatTypePrivate
	default:
		return models.RequestContext{}, "", err
	}

	snap, err := r.services(team.ID).Permissions.Snapshot(ctx, u.TelegramID)
	if err != nil {
		return models.RequestContext{}, "", err
	}

	origin := models.OriginNaturalLanguage
	if strings.HasPrefix(strings.TrimSpace(u.Text), "/") || u.Contact != nil {
		origin = models.OriginCommand
	}

	text := u.Text
	reqCtx, err := models.NewRequestContext(models.ContextParams{
		TelegramID:   u.TelegramID,
		Username:     u.Username,
		DisplayName:  u.DisplayName,
		TeamID:       team.ID,
		ChatID:       chatID,
		ChatType:     chatType,
		MessageText:  &text,
		IsPlayer:     snap.IsPlayer,
		IsTeamMember: snap.IsTeamMember,
		IsAdmin:      snap.IsAdmin,
		IsLeadership: snap.IsLeadership,
		Origin:       origin,
	})
	if err != nil {
		return models.RequestContext{}, "", err
	}
	return reqCtx, "", nil
}

// handleContact rewrites a shared contact card into the synthetic
// link-contact command carrying the phone number.
func (r *Router) handleContact(ctx context.Context, u telegram.Update, reqCtx models.RequestContext) telegram.Response {
	userID := strconv.FormatInt(u.Contact.UserID, 10)
	reqCtx = reqCtx.
		WithMetadata("contact_phone", u.Contact.PhoneNumber).
		WithMetadata("contact_user_id", userID).
		WithMessageText(commands.LinkContactCommand, models.OriginCommand)

	params := map[string]any{
		"contact_phone":   u.Contact.PhoneNumber,
		"contact_user_id": userID,
	}
	exec := r.pipeline.Process(ctx, commands.LinkContactCommand, params, reqCtx)
	return r.respond(ctx, exec)
}

// handleCommand resolves a slash command and scripts the refusals that
// must not reach the pipeline: unknown name, wrong chat, missing
// permission.
func (r *Router) handleCommand(ctx context.Context, log *observability.Logger, text string, reqCtx models.RequestContext) telegram.Response {
	name, tail, _ := strings.Cut(text, " ")
	name = strings.ToLower(name)
	// Group chats append the bot mention: /help@team_bot.
	if i := strings.Index(name, "@"); i > 0 {
		name = name[:i]
	}

	d, ok := r.commands.GetForChat(name, reqCtx.ChatType)
	if !ok || d.Internal {
		full, known := r.commands.Get(name)
		if !known || full.Internal {
			return telegram.Response{Text: fmt.Sprintf(
				"I don't recognize %s. Send /help to see what you can do here.", name)}
		}
		// The permission wall comes before the chat-scope hint so callers
		// who may not run the command anywhere learn nothing about where
		// it would work.
		if !full.Permission.SatisfiedBy(reqCtx) {
			return r.denyCommand(ctx, log, name, full.Permission, reqCtx)
		}
		return telegram.Response{Text: chatScopeReply(name, full.ChatTypes)}
	}

	if !d.Permission.SatisfiedBy(reqCtx) {
		return r.denyCommand(ctx, log, name, d.Permission, reqCtx)
	}

	exec := r.pipeline.Process(ctx, text, parseArgs(d.ToolID, strings.TrimSpace(tail)), reqCtx)
	return r.respond(ctx, exec)
}

// denyCommand scripts a permission refusal. Nothing reaches the
// pipeline, so denied commands cannot touch stored data.
func (r *Router) denyCommand(ctx context.Context, log *observability.Logger, name string,
	required models.PermissionLevel, reqCtx models.RequestContext) telegram.Response {
	log.Info(ctx, "command denied",
		"command", name, "required", string(required), "chat_type", string(reqCtx.ChatType))
	r.metrics.RecordError("router", "permission_denied")
	return telegram.Response{Text: apperr.UserMessage(
		apperr.Permission(fmt.Sprintf("%s requires %s access", name, required), nil))}
}

// chatScopeReply scripts the redirect for a command used outside its
// registered chats.
func chatScopeReply(name string, chats []models.ChatType) string {
	target := "right"
	if len(chats) > 0 {
		target = string(chats[0])
	}
	return fmt.Sprintf("%s isn't available in this chat. Try it in the %s chat.", name, target)
}

// respond converts the finished execution into a transport reply,
// substituting the timeout script when the deadline cut the run short.
func (r *Router) respond(ctx context.Context, exec *orchestration.Execution) telegram.Response {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return telegram.Response{Text: timeoutApology}
	}
	return telegram.Response{
		Text:           exec.Final,
		RequestContact: exec.RequestContact,
	}
}
