package builtin

import (
	"context"
	"fmt"

	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

const markAttendanceSchema = `{
	"type": "object",
	"properties": {
		"match_id":  {"type": "string", "minLength": 1},
		"player_id": {"type": "string", "minLength": 1},
		"status":    {"type": "string", "enum": ["yes", "no", "maybe", "attended", "absent"]}
	},
	"required": ["match_id", "player_id", "status"]
}`

const markAvailabilitySchema = `{
	"type": "object",
	"properties": {
		"match_id": {"type": "string", "minLength": 1},
		"status":   {"type": "string", "enum": ["yes", "no", "maybe"]}
	},
	"required": ["match_id", "status"]
}`

func attendanceDescriptors(deps Deps) []tools.Descriptor {
	leaders := map[models.AgentRole][]models.EntityType{
		models.RoleSquadSelector:     {models.EntityPlayer},
		models.RoleTeamAdministrator: {models.EntityBoth},
	}
	open := map[models.AgentRole][]models.EntityType{
		models.RoleMessageProcessor:  {models.EntityPlayer},
		models.RoleSquadSelector:     {models.EntityPlayer},
		models.RoleTeamAdministrator: {models.EntityBoth},
	}

	return []tools.Descriptor{
		{
			ID:                 "mark_attendance",
			Description:        "Record a player's attendance or availability for a match.",
			Type:               tools.TypeAttendance,
			Category:           tools.CategoryCore,
			Feature:            "attendance",
			Enabled:            true,
			RequiredPermission: models.PermissionLeadership,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      leaders,
			RequiresContext:    true,
			ContextSchema:      []byte(markAttendanceSchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				a, err := deps.Services(reqCtx.TeamID).Attendance.Mark(ctx, reqCtx,
					stringArg(args, "match_id"), stringArg(args, "player_id"),
					models.AttendanceStatus(stringArg(args, "status")))
				if err != nil {
					return fail(err)
				}
				return models.SuccessEnvelope(
					fmt.Sprintf("Recorded %s for %s in match %s.", a.Status, a.PlayerID, a.MatchID), nil)
			},
		},
		{
			ID:                 "mark_availability",
			Description:        "Record the calling player's own availability for a match.",
			Type:               tools.TypeAttendance,
			Category:           tools.CategoryCore,
			Feature:            "attendance",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      open,
			RequiresContext:    true,
			ContextSchema:      []byte(markAvailabilitySchema),
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				a, err := deps.Services(reqCtx.TeamID).Attendance.Availability(ctx, reqCtx,
					stringArg(args, "match_id"), models.AttendanceStatus(stringArg(args, "status")))
				if err != nil {
					return fail(err)
				}
				word := map[models.AttendanceStatus]string{
					models.AttendanceYes:   "available",
					models.AttendanceNo:    "unavailable",
					models.AttendanceMaybe: "a maybe",
				}[a.Status]
				return models.SuccessEnvelope(
					fmt.Sprintf("Got it, you're %s for match %s.", word, a.MatchID), nil)
			},
		},
		{
			ID:                 "get_attendance",
			Description:        "Show who is available or attended for a match.",
			Type:               tools.TypeAttendance,
			Category:           tools.CategoryFeature,
			Feature:            "attendance",
			Enabled:            true,
			RequiredPermission: models.PermissionPlayer,
			EntityTypes:        []models.EntityType{models.EntityPlayer},
			AccessControl:      open,
			Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
				matchID := stringArg(args, "match_id")
				if matchID == "" {
					return models.ErrorEnvelope("Which match? Give me a match ID, e.g. M1.")
				}
				records, err := deps.Services(reqCtx.TeamID).Attendance.ForMatch(ctx, matchID)
				if err != nil {
					return fail(err)
				}
				if len(records) == 0 {
					return models.SuccessEnvelope(
						fmt.Sprintf("No availability recorded yet for match %s.", matchID), nil)
				}
				counts := make(map[models.AttendanceStatus]int)
				items := make([]map[string]any, 0, len(records))
				for _, a := range records {
					counts[a.Status]++
					items = append(items, map[string]any{
						"player_id": a.PlayerID,
						"status":    string(a.Status),
					})
				}
				return models.SuccessEnvelope("", map[string]any{
					"message": fmt.Sprintf("Match %s: %d yes, %d no, %d maybe.",
						matchID, counts[models.AttendanceYes], counts[models.AttendanceNo], counts[models.AttendanceMaybe]),
					"records": items,
				})
			},
		},
	}
}
