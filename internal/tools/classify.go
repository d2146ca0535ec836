package tools

import (
	"strings"

	"github.com/kickai-football/kickai/pkg/models"
)

// keywordRule maps ID substrings to a default classification. Rules are
// ordered; the first match wins.
type keywordRule struct {
	keywords []string
	toolType Type
	access   map[models.AgentRole][]models.EntityType
}

var classifyRules = []keywordRule{
	{
		keywords: []string{"invite"},
		toolType: TypeSystem,
		access: map[models.AgentRole][]models.EntityType{
			models.RoleTeamAdministrator: {models.EntityNeither},
		},
	},
	{
		keywords: []string{"announce", "broadcast", "send"},
		toolType: TypeCommunication,
		access: map[models.AgentRole][]models.EntityType{
			models.RoleTeamAdministrator: {models.EntityNeither},
		},
	},
	{
		keywords: []string{"admin", "manage", "promote", "member"},
		toolType: TypeTeamMgmt,
		access: map[models.AgentRole][]models.EntityType{
			models.RoleTeamAdministrator: {models.EntityTeamMember},
		},
	},
	{
		keywords: []string{"match", "squad", "select"},
		toolType: TypeMatchMgmt,
		access: map[models.AgentRole][]models.EntityType{
			models.RoleSquadSelector:     {models.EntityPlayer, models.EntityNeither},
			models.RoleTeamAdministrator: {models.EntityPlayer, models.EntityNeither},
		},
	},
	{
		keywords: []string{"attend", "avail"},
		toolType: TypeAttendance,
		access: map[models.AgentRole][]models.EntityType{
			models.RoleSquadSelector:     {models.EntityPlayer},
			models.RolePlayerCoordinator: {models.EntityPlayer},
			models.RoleTeamAdministrator: {models.EntityPlayer},
		},
	},
	{
		keywords: []string{"player", "register", "approve", "reject"},
		toolType: TypePlayerMgmt,
		access: map[models.AgentRole][]models.EntityType{
			models.RolePlayerCoordinator: {models.EntityPlayer, models.EntityBoth},
			models.RoleTeamAdministrator: {models.EntityPlayer, models.EntityBoth},
		},
	},
	{
		keywords: []string{"help", "command"},
		toolType: TypeHelp,
		access: map[models.AgentRole][]models.EntityType{
			models.RoleHelpAssistant:    {models.EntityNeither, models.EntityBoth},
			models.RoleMessageProcessor: {models.EntityNeither, models.EntityBoth},
		},
	},
}

// ClassifyID derives a default (type, access control) for a tool whose
// registration left the type blank, from keywords in its ID. Unmatched IDs
// classify as open utilities. Explicit registration metadata overrides
// whatever this returns.
func ClassifyID(toolID string) (Type, map[models.AgentRole][]models.EntityType) {
	id := strings.ToLower(toolID)
	for _, rule := range classifyRules {
		for _, kw := range rule.keywords {
			if strings.Contains(id, kw) {
				return rule.toolType, copyAccess(rule.access)
			}
		}
	}
	return TypeUtility, nil
}

func copyAccess(in map[models.AgentRole][]models.EntityType) map[models.AgentRole][]models.EntityType {
	out := make(map[models.AgentRole][]models.EntityType, len(in))
	for role, entities := range in {
		out[role] = append([]models.EntityType(nil), entities...)
	}
	return out
}
