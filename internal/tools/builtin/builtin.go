// Package builtin registers the stock tool set: player lifecycle, team
// membership, matches, attendance, announcements, invites, and the help and
// system utilities. Every handler returns a JSON envelope string; domain
// errors are rendered through their user-safe surfaces and never escape as
// Go errors.
package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/invite"
	"github.com/kickai-football/kickai/internal/service"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

// ServiceResolver hands out the per-team service bundle. The factory
// satisfies it; tests substitute a closure over fakes.
type ServiceResolver func(teamID string) *service.Services

// Sender delivers announcement text to a chat. The Telegram adapter
// satisfies it.
type Sender interface {
	SendMessage(ctx context.Context, chatID, text string) error
}

// Deps carries everything the builtin tools need.
type Deps struct {
	Services ServiceResolver
	Teams    *service.TeamService
	Invite   *invite.Service
	Commands *commands.Registry
	Sender   Sender

	Version     string
	BotUsername string
	StartedAt   time.Time
}

// Register applies the builtin manifest to reg. Applying it twice is a
// no-op: the registry remembers discovery, so restarts of the startup
// sequence cannot double-register.
func Register(reg *tools.Registry, deps Deps) error {
	if !reg.MarkDiscovered() {
		return nil
	}

	groups := [][]tools.Descriptor{
		playerDescriptors(deps),
		teamDescriptors(deps),
		matchDescriptors(deps),
		attendanceDescriptors(deps),
		systemDescriptors(deps),
	}
	for _, group := range groups {
		for _, d := range group {
			if err := reg.Register(d); err != nil {
				return fmt.Errorf("builtin manifest: %w", err)
			}
		}
	}
	return nil
}

// fail renders an error envelope from a domain error.
func fail(err error) string {
	return models.ErrorEnvelope(apperr.UserMessage(err))
}

// confirm wraps a mutation result so the confirmation text survives
// rendering: on success the formatter recurses into data and drops the
// envelope's top-level message, so the text must ride inside data.
func confirm(message string, data map[string]any) string {
	data["message"] = message
	return models.SuccessEnvelope("", data)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return strings.TrimSpace(v)
}

func boolArg(args map[string]any, key string) bool {
	v, _ := args[key].(bool)
	return v
}

// stringSliceArg accepts both []any (decoded JSON) and a comma-separated
// string, which is what command arguments arrive as.
func stringSliceArg(args map[string]any, key string) []string {
	switch v := args[key].(type) {
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
		return out
	default:
		return nil
	}
}

// playerSummary shapes a player for reply rendering.
func playerSummary(p models.Player) map[string]any {
	return map[string]any{
		"player_id": p.ID,
		"name":      p.Name,
		"position":  p.Position,
		"status":    string(p.Status),
	}
}

// playerDetail adds the fields only the player themself or leadership see.
func playerDetail(p models.Player) map[string]any {
	m := playerSummary(p)
	m["phone"] = p.Phone
	return m
}

func memberSummary(m models.TeamMember) map[string]any {
	return map[string]any{
		"member_id": m.ID,
		"name":      m.Name,
		"role":      m.Role,
		"is_admin":  m.IsAdmin,
	}
}

func matchSummary(m models.Match) map[string]any {
	out := map[string]any{
		"match_id": m.ID,
		"opponent": m.Opponent,
		"date":     m.Date.Format("Mon 2 Jan 2006 15:04"),
		"status":   string(m.Status),
	}
	if m.Status == models.MatchScheduled {
		out["kickoff"] = format.Until(m.Date, time.Now())
	}
	if m.Location != "" {
		out["location"] = m.Location
	}
	if m.Competition != "" {
		out["competition"] = m.Competition
	}
	return out
}
