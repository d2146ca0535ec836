package builtin

import (
	"context"
	"fmt"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

const registerPlayerSchema = `{
	"type": "object",
	"properties": {
		"name":     {"type": "string", "minLength": 1},
		"phone":    {"type": "string"},
		"position": {"type": "string"}
	},
	"required": ["name"]
}`

const playerIDSchema = `{
	"type": "object",
	"properties": {
		"player_id": {"type": "string", "minLength": 1}
	},
	"required": ["player_id"]
}`

const addPlayerSchema = `{
	"type": "object",
	"properties": {
		"name":  {"type": "string", "minLength": 1},
		"phone": {"type": "string", "minLength": 1}
	},
	"required": ["name", "phone"]
}`

const linkContactSchema = `{
	"type": "object",
	"properties": {
		"contact_phone":   {"type": "string", "minLength": 1},
		"contact_user_id": {"type": "string"}
	},
	"required": ["contact_phone"]
}`

func playerDescriptors(deps Deps) []tools.Descriptor {
	coordinated := map[models.AgentRole][]models.EntityType{
		models.RolePlayerCoordinator: {models.EntityPlayer},
		models.RoleTeamAdministrator: {models.EntityBoth},
	}
	selfServe := map[models.AgentRole][]models.EntityType{
		models.RoleMessageProcessor:  {models.EntityBoth},
		models.RolePlayerCoordinator: {models.EntityPlayer},
		models.RoleTeamAdministrator: {models.EntityBoth},
	}

	return []tools.Descriptor{
		{
			ID:                 "register_player",
			Description:        "Register the calling user as a new player, pending approval.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryCore,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionPublic,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      coordinated,
			RequiresContext:    true,
			ContextSchema:      []byte(registerPlayerSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				p, err := deps.Services(reqCtx.TeamID).Players.Register(ctx, reqCtx,
					stringArg(args, "name"), stringArg(args, "phone"), stringArg(args, "position"))
				if err != nil {
					return fail(err)
				}
				return confirm(
					fmt.Sprintf("Registration Successful! Welcome %s, your player ID is %s. An admin will approve you shortly.", p.Name, p.ID),
					playerDetail(p))
			},
		},
		{
			ID:                 "update_player",
			Description:        "Update the calling player's phone number or position.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      selfServe,
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				p, err := deps.Services(reqCtx.TeamID).Players.UpdateInfo(ctx, reqCtx,
					stringArg(args, "phone"), stringArg(args, "position"))
				if err != nil {
					return fail(err)
				}
				return confirm("Your details have been updated.", playerDetail(p))
			},
		},
		{
			ID:                 "approve_player",
			Description:        "Approve a pending player registration.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryCore,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      coordinated,
			RequiresContext:    true,
			ContextSchema:      []byte(playerIDSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				p, err := deps.Services(reqCtx.TeamID).Players.Approve(ctx, reqCtx, stringArg(args, "player_id"))
				if err != nil {
					return fail(err)
				}
				return confirm(fmt.Sprintf("%s (%s) is approved and active.", p.Name, p.ID), playerSummary(p))
			},
		},
		{
			ID:                 "reject_player",
			Description:        "Reject a pending player registration.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      coordinated,
			RequiresContext:    true,
			ContextSchema:      []byte(playerIDSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				p, err := deps.Services(reqCtx.TeamID).Players.Reject(ctx, reqCtx, stringArg(args, "player_id"))
				if err != nil {
					return fail(err)
				}
				return confirm(fmt.Sprintf("%s's registration was rejected.", p.Name), playerSummary(p))
			},
		},
		{
			ID:                 "remove_player",
			Description:        "Remove a player from the squad.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      coordinated,
			RequiresContext:    true,
			ContextSchema:      []byte(playerIDSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				p, err := deps.Services(reqCtx.TeamID).Players.Remove(ctx, reqCtx, stringArg(args, "player_id"))
				if err != nil {
					return fail(err)
				}
				return confirm(fmt.Sprintf("%s (%s) has been removed from the squad.", p.Name, p.ID), playerSummary(p))
			},
		},
		{
			ID:                 "add_player",
			Description:        "Add a player directly by name and phone, already approved.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      coordinated,
			RequiresContext:    true,
			ContextSchema:      []byte(addPlayerSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				p, err := deps.Services(reqCtx.TeamID).Players.AddDirect(ctx, reqCtx,
					stringArg(args, "name"), stringArg(args, "phone"))
				if err != nil {
					return fail(err)
				}
				return confirm(
					fmt.Sprintf("%s added as %s. Share an invite link so they can join the chat.", p.Name, p.ID),
					playerDetail(p))
			},
		},
		{
			ID:                 "list_players",
			Description:        "List the squad. Filter 'all' includes pending, rejected and removed players.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryCore,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      selfServe,
			Aliases:            []string{"get_players", "get_active_players"},
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				svc := deps.Services(reqCtx.TeamID).Players
				var (
					players []models.Player
					err     error
				)
				if stringArg(args, "filter") == "all" {
					players, err = svc.ListAll(ctx)
				} else {
					players, err = svc.ListActive(ctx)
				}
				if err != nil {
					return fail(err)
				}
				if len(players) == 0 {
					return models.SuccessEnvelope("No players found. Use /register to join the squad.", nil)
				}
				items := make([]map[string]any, 0, len(players))
				for _, p := range players {
					items = append(items, playerSummary(p))
				}
				return models.SuccessEnvelope("", map[string]any{
					"message": fmt.Sprintf("%d player(s):", len(players)),
					"players": items,
				})
			},
		},
		{
			ID:                 "player_status",
			Description:        "Look a player up by ID or phone number.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      selfServe,
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				svc := deps.Services(reqCtx.TeamID).Players
				var (
					p   models.Player
					err error
				)
				switch {
				case stringArg(args, "player_id") != "":
					p, err = svc.ByID(ctx, stringArg(args, "player_id"))
				case stringArg(args, "phone") != "":
					p, err = svc.ByPhone(ctx, stringArg(args, "phone"))
				default:
					err = apperr.Validation("Give me a player ID or a phone number to look up.", nil)
				}
				if err != nil {
					return fail(err)
				}
				return models.SuccessEnvelope("", playerSummary(p))
			},
		},
		{
			ID:                 "my_info",
			Description:        "Show the calling user's own registration details.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryCore,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityBoth},
			AccessControl:      selfServe,
			Handler: func(ctx context.Context, reqCtx models.RequestContext, _ map[string]any) string {
				bundle := deps.Services(reqCtx.TeamID)
				if p, err := bundle.Players.ByTelegramID(ctx, reqCtx.TelegramID); err == nil {
					return models.SuccessEnvelope("", playerDetail(p))
				} else if apperr.CodeOf(err) != apperr.CodeNotFound {
					return fail(err)
				}
				m, err := bundle.Members.ByTelegramID(ctx, reqCtx.TelegramID)
				if err != nil {
					return fail(err)
				}
				return models.SuccessEnvelope("", memberSummary(m))
			},
		},
		{
			ID:                 "link_contact",
			Description:        "Link a shared phone contact to an existing player record.",
			Type:               tools.TypePlayerMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "player_registration",
			Enabled:            true,
			RequiredPermission: models.PermissionPublic,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      selfServe,
			RequiresContext:    true,
			ContextSchema:      []byte(linkContactSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				phone := stringArg(args, "contact_phone")
				p, err := deps.Services(reqCtx.TeamID).Players.LinkContact(ctx, reqCtx, phone)
				if err != nil {
					if apperr.CodeOf(err) == apperr.CodeNotFound {
						// No record to link yet: steer the user to register
						// and ask the transport for the contact button.
						return confirm(
							"I couldn't find a player with that number. Use /register to join, or ask an admin to add you.",
							map[string]any{models.MetaNeedsContactButton: true})
					}
					return fail(err)
				}
				return confirm(
					fmt.Sprintf("Thanks %s, your account is now linked to player %s.", p.Name, p.ID),
					playerSummary(p))
			},
		},
	}
}
