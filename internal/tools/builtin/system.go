package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/kickai-football/kickai/internal/format"
	"github.com/kickai-football/kickai/internal/invite"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

const announceSchema = `{
	"type": "object",
	"properties": {
		"message": {"type": "string", "minLength": 1}
	},
	"required": ["message"]
}`

const welcomeText = "Welcome to the team! I can help with registration, fixtures, availability and more. Send /help to see what I can do, or just ask me in plain language."

func systemDescriptors(deps Deps) []tools.Descriptor {
	adminComm := map[models.AgentRole][]models.EntityType{
		models.RoleTeamAdministrator: {models.EntityBoth},
	}

	return []tools.Descriptor{
		{
			ID:                 "send_announcement",
			Description:        "Broadcast a message to the team's main chat.",
			Type:               tools.TypeCommunication,
			Category:           tools.CategoryFeature,
			Feature:            "communication",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			AccessControl:      adminComm,
			RequiresContext:    true,
			ContextSchema:      []byte(announceSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				text := stringArg(args, "message")
				team, err := deps.Teams.ByID(ctx, reqCtx.TeamID)
				if err != nil {
					return fail(err)
				}
				if deps.Sender == nil {
					return models.ErrorEnvelope("Announcements aren't available right now. Please try again later.")
				}
				announcement := "📢 " + text
				if err := deps.Sender.SendMessage(ctx, team.MainChatID, announcement); err != nil {
					return fail(err)
				}
				return models.SuccessEnvelope("Announcement sent to the main chat.", nil)
			},
		},
		{
			ID:                 "generate_invite_link",
			Description:        "Create a time-limited invite link for the main or leadership chat.",
			Type:               tools.TypeSystem,
			Category:           tools.CategoryFeature,
			Feature:            "team_administration",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			AccessControl:      adminComm,
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				chatType := models.ChatTypeMain
				if stringArg(args, "chat_type") == string(models.ChatTypeLeadership) {
					chatType = models.ChatTypeLeadership
				}
				token, err := deps.Invite.Mint(reqCtx.TeamID, chatType)
				if err != nil {
					return fail(err)
				}
				return models.SuccessEnvelope("", map[string]any{
					"message":     fmt.Sprintf("Here's an invite link for the %s chat. It expires automatically.", chatType),
					"invite_link": invite.LinkURL(deps.BotUsername, token),
				})
			},
		},
		{
			ID:                 "get_help",
			Description:        "List the commands available to the calling user in this chat.",
			Type:               tools.TypeHelp,
			Category:           tools.CategoryCore,
			Feature:            "help",
			Enabled:            true,
			RequiredPermission: models.PermissionPublic,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			Aliases:            []string{"help"},
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				var b strings.Builder
				if boolArg(args, "welcome") {
					b.WriteString(welcomeText)
					b.WriteString("\n\n")
				}
				available := deps.Commands.AvailableFor(reqCtx)
				if len(available) == 0 {
					b.WriteString("No commands are available here. Try messaging me directly.")
					return models.SuccessEnvelope(b.String(), nil)
				}
				sort.Slice(available, func(i, j int) bool { return available[i].Name < available[j].Name })
				b.WriteString("Here's what I can do:\n")
				for _, d := range available {
					b.WriteString(fmt.Sprintf("%s: %s\n", d.Name, d.Description))
				}
				b.WriteString("\nYou can also just ask in plain language.")
				return models.SuccessEnvelope(b.String(), nil)
			},
		},
		{
			ID:                 "ping",
			Description:        "Liveness check.",
			Type:               tools.TypeSystem,
			Category:           tools.CategoryUtility,
			Feature:            "system",
			Enabled:            true,
			RequiredPermission: models.PermissionPublic,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			Handler: func(_ context.Context, _ models.RequestContext, _ map[string]any) string {
				return models.SuccessEnvelope("Pong! I'm here.", nil)
			},
		},
		{
			ID:                 "get_version",
			Description:        "Report the running version and uptime.",
			Type:               tools.TypeSystem,
			Category:           tools.CategoryUtility,
			Feature:            "system",
			Enabled:            true,
			RequiredPermission: models.PermissionPublic,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			Aliases:            []string{"version"},
			Handler: func(_ context.Context, _ models.RequestContext, _ map[string]any) string {
				data := map[string]any{"version": deps.Version}
				if !deps.StartedAt.IsZero() {
					data["uptime"] = format.Uptime(time.Since(deps.StartedAt))
				}
				return models.SuccessEnvelope("", data)
			},
		},
	}
}
