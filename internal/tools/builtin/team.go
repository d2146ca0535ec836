package builtin

import (
	"context"
	"fmt"

	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

const addMemberSchema = `{
	"type": "object",
	"properties": {
		"name":  {"type": "string", "minLength": 1},
		"phone": {"type": "string"},
		"role":  {"type": "string"}
	},
	"required": ["name"]
}`

func teamDescriptors(deps Deps) []tools.Descriptor {
	adminOnly := map[models.AgentRole][]models.EntityType{
		models.RoleTeamAdministrator: {models.EntityTeamMember},
	}
	leadershipRead := map[models.AgentRole][]models.EntityType{
		models.RoleMessageProcessor:  {models.EntityTeamMember},
		models.RoleTeamAdministrator: {models.EntityTeamMember},
	}

	return []tools.Descriptor{
		{
			ID:                 "add_team_member",
			Description:        "Add a non-playing team member such as a coach or secretary.",
			Type:               tools.TypeTeamMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "team_administration",
			Enabled:            true,
			RequiredPermission: models.PermissionAdmin,
			EntityTypes:        []models.EntityType{models.EntityTeamMember},
			AccessControl:      adminOnly,
			RequiresContext:    true,
			ContextSchema:      []byte(addMemberSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				m, err := deps.Services(reqCtx.TeamID).Members.Add(ctx, reqCtx,
					stringArg(args, "name"), stringArg(args, "phone"), stringArg(args, "role"))
				if err != nil {
					return fail(err)
				}
				return confirm(
					fmt.Sprintf("%s added to the team staff as %s.", m.Name, m.ID), memberSummary(m))
			},
		},
		{
			ID:                 "list_team_members",
			Description:        "List the team's non-playing staff.",
			Type:               tools.TypeTeamMgmt,
			Category:           tools.CategoryFeature,
			Feature:            "team_administration",
			Enabled:            true,
			RequiredPermission: models.PermissionLeadership,
			EntityTypes:        []models.EntityType{models.EntityTeamMember},
			AccessControl:      leadershipRead,
			Aliases:            []string{"get_team_members"},
			Handler: func(ctx context.Context, reqCtx models.RequestContext, _ map[string]any) string {
				members, err := deps.Services(reqCtx.TeamID).Members.List(ctx)
				if err != nil {
					return fail(err)
				}
				if len(members) == 0 {
					return models.SuccessEnvelope("No team members on record. Use /addmember to add one.", nil)
				}
				items := make([]map[string]any, 0, len(members))
				for _, m := range members {
					items = append(items, memberSummary(m))
				}
				return models.SuccessEnvelope("", map[string]any{
					"message": fmt.Sprintf("%d team member(s):", len(members)),
					"members": items,
				})
			},
		},
	}
}
