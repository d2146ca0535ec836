package orchestration

import (
	"strings"

	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/tools"
	"github.com/kickai-football/kickai/pkg/models"
)

// roleOrder is the preference order when a tool's access control admits
// several roles. Specialists beat the fallback.
var roleOrder = []models.AgentRole{
	models.RolePlayerCoordinator,
	models.RoleTeamAdministrator,
	models.RoleSquadSelector,
	models.RoleHelpAssistant,
	models.RoleMessageProcessor,
}

// validateEntities decides whether the request names a valid operation,
// which entity type it concerns, and which agent role is its natural
// home. The first whitespace token is treated as the command name.
func validateEntities(task string, reqCtx models.RequestContext, cmds *commands.Registry, reg *tools.Registry, intent Intent) ValidationResult {
	first, _, _ := strings.Cut(strings.TrimSpace(task), " ")

	if strings.HasPrefix(first, "/") {
		d, ok := cmds.GetForChat(first, reqCtx.ChatType)
		if !ok {
			return ValidationResult{
				IsValid:       false,
				EntityType:    models.EntityNeither,
				ErrorMessage:  "unknown command " + first,
				SuggestedRole: models.RoleMessageProcessor,
			}
		}
		tool, ok := reg.Get(d.ToolID)
		if !ok {
			return ValidationResult{
				IsValid:       false,
				EntityType:    models.EntityNeither,
				ErrorMessage:  "command " + first + " has no backing tool",
				SuggestedRole: models.RoleMessageProcessor,
			}
		}
		return ValidationResult{
			IsValid:       true,
			EntityType:    primaryEntity(tool),
			SuggestedRole: suggestedRole(tool),
		}
	}

	// Natural language: the intent hints at the entity and role.
	switch intent.Name {
	case IntentRegistration, IntentStatusInquiry:
		return ValidationResult{IsValid: true, EntityType: models.EntityPlayer, SuggestedRole: models.RolePlayerCoordinator}
	case IntentHelpRequest:
		return ValidationResult{IsValid: true, EntityType: models.EntityNeither, SuggestedRole: models.RoleHelpAssistant}
	default:
		return ValidationResult{IsValid: true, EntityType: models.EntityNeither, SuggestedRole: models.RoleMessageProcessor}
	}
}

// primaryEntity reduces a tool's entity set to one type for the
// operation context.
func primaryEntity(d *tools.Descriptor) models.EntityType {
	if len(d.EntityTypes) == 0 {
		return models.EntityNeither
	}
	if len(d.EntityTypes) == 1 {
		return d.EntityTypes[0]
	}
	hasPlayer, hasMember := false, false
	for _, e := range d.EntityTypes {
		switch e {
		case models.EntityBoth:
			return models.EntityBoth
		case models.EntityPlayer:
			hasPlayer = true
		case models.EntityTeamMember:
			hasMember = true
		}
	}
	if hasPlayer && hasMember {
		return models.EntityBoth
	}
	return d.EntityTypes[0]
}

// suggestedRole picks the natural agent for a tool: the most specialized
// role its access control admits, or a role inferred from its type when
// the tool is open to everyone.
func suggestedRole(d *tools.Descriptor) models.AgentRole {
	if len(d.AccessControl) > 0 {
		for _, role := range roleOrder {
			if _, ok := d.AccessControl[role]; ok {
				return role
			}
		}
		return models.RoleMessageProcessor
	}
	switch d.Type {
	case tools.TypePlayerMgmt:
		return models.RolePlayerCoordinator
	case tools.TypeTeamMgmt, tools.TypeCommunication:
		return models.RoleTeamAdministrator
	case tools.TypeMatchMgmt, tools.TypeAttendance:
		return models.RoleSquadSelector
	case tools.TypeHelp:
		return models.RoleHelpAssistant
	default:
		return models.RoleMessageProcessor
	}
}
