package builtin

import (
	"context"
	"fmt"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

const createMatchSchema = `{
	"type": "object",
	"properties": {
		"opponent":    {"type": "string", "minLength": 1},
		"date":        {"type": "string", "minLength": 1},
		"location":    {"type": "string"},
		"competition": {"type": "string"}
	},
	"required": ["opponent", "date"]
}`

const selectSquadSchema = `{
	"type": "object",
	"properties": {
		"match_id": {"type": "string", "minLength": 1},
		"player_ids": {
			"anyOf": [
				{"type": "array", "items": {"type": "string"}, "minItems": 1},
				{"type": "string", "minLength": 1}
			]
		}
	},
	"required": ["match_id", "player_ids"]
}`

// matchDateLayouts are the accepted inputs for match dates, tried in order.
var matchDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02",
}

func parseMatchDate(raw string) (time.Time, error) {
	for _, layout := range matchDateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, apperr.Validation(
		fmt.Sprintf("I couldn't read %q as a date. Try the form 2006-01-02 15:04.", raw), nil)
}

func matchDescriptors(deps Deps) []tools.Descriptor {
	selectors := map[models.AgentRole][]models.EntityType{
		models.RoleSquadSelector:     {models.EntityPlayer},
		models.RoleTeamAdministrator: {models.EntityBoth},
	}
	open := map[models.AgentRole][]models.EntityType{
		models.RoleMessageProcessor:  {models.EntityBoth},
		models.RoleSquadSelector:     {models.EntityPlayer},
		models.RoleTeamAdministrator: {models.EntityBoth},
	}

	return []tools.Descriptor{
		{
			ID:                 "create_match",
			Description:        "Schedule a fixture against an opponent.",
			Type:               tools.TypeMatchMgmt,
			Category:           tools.CategoryCore,
			Feature:            "match_management",
			Enabled:            true,
			RequiredPermission: models.PermissionLeadership,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			AccessControl:      selectors,
			RequiresContext:    true,
			ContextSchema:      []byte(createMatchSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				date, err := parseMatchDate(stringArg(args, "date"))
				if err != nil {
					return fail(err)
				}
				m, err := deps.Services(reqCtx.TeamID).Matches.Create(ctx, reqCtx,
					stringArg(args, "opponent"), date, stringArg(args, "location"), stringArg(args, "competition"))
				if err != nil {
					return fail(err)
				}
				return confirm(
					fmt.Sprintf("Match %s against %s is on the calendar.", m.ID, m.Opponent), matchSummary(m))
			},
		},
		{
			ID:                 "list_matches",
			Description:        "List upcoming fixtures. Filter 'all' includes completed and cancelled ones.",
			Type:               tools.TypeMatchMgmt,
			Category:           tools.CategoryCore,
			Feature:            "match_management",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityNeither},
			AccessControl:      open,
			Aliases:            []string{"get_matches", "list_fixtures"},
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				svc := deps.Services(reqCtx.TeamID).Matches
				var (
					matches []models.Match
					err     error
				)
				if stringArg(args, "filter") == "all" {
					matches, err = svc.ListAll(ctx)
				} else {
					matches, err = svc.List(ctx)
				}
				if err != nil {
					return fail(err)
				}
				if len(matches) == 0 {
					return models.SuccessEnvelope("No matches scheduled.", nil)
				}
				items := make([]map[string]any, 0, len(matches))
				for _, m := range matches {
					items = append(items, matchSummary(m))
				}
				return models.SuccessEnvelope("", map[string]any{
					"message": fmt.Sprintf("%d match(es):", len(matches)),
					"matches": items,
				})
			},
		},
		{
			ID:                 "select_squad",
			Description:        "Record the squad for a match from a list of player IDs.",
			Type:               tools.TypeMatchMgmt,
			Category:           tools.CategoryCore,
			Feature:            "match_management",
			Enabled:            true,
			RequiredPermission: models.PermissionLeadership,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      selectors,
			RequiresContext:    true,
			ContextSchema:      []byte(selectSquadSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				m, err := deps.Services(reqCtx.TeamID).Matches.SelectSquad(ctx, reqCtx,
					stringArg(args, "match_id"), stringSliceArg(args, "player_ids"))
				if err != nil {
					return fail(err)
				}
				return confirm(
					fmt.Sprintf("Squad of %d locked in for match %s.", len(m.Squad), m.ID),
					map[string]any{"match_id": m.ID, "squad": m.Squad})
			},
		},
	}
}
