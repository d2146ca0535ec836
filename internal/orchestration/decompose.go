package orchestration

import (
	"fmt"
	"strings"
	"time"

	"github.com/kickai-football/kickai/pkg/models"
)

// decompose splits a high-complexity request into ordered advisory
// subtasks at conjunction boundaries. Low and medium complexity yield no
// subtasks.
func decompose(task string, complexity Complexity, intent Intent) []Subtask {
	if complexity.Level != ComplexityHigh && complexity.Level != ComplexityVeryHigh {
		return nil
	}

	parts := splitOnConjunctions(task)
	if len(parts) < 2 {
		parts = []string{task}
	}

	subtasks := make([]Subtask, 0, len(parts))
	for i, part := range parts {
		role, capabilities := subtaskRole(part, intent)
		subtasks = append(subtasks, Subtask{
			TaskID:               fmt.Sprintf("subtask_%d", i+1),
			Description:          part,
			RequiredCapabilities: capabilities,
			AgentRole:            role,
			EstimatedDuration:    5 * time.Second,
		})
	}
	return subtasks
}

func splitOnConjunctions(task string) []string {
	normalized := strings.ReplaceAll(task, ";", " and ")
	normalized = strings.ReplaceAll(normalized, " then ", " and ")

	var parts []string
	for _, part := range strings.Split(normalized, " and ") {
		if p := strings.TrimSpace(part); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// subtaskRole picks a role per fragment so a compound request like
// "register me and show the fixtures" routes each half sensibly.
func subtaskRole(fragment string, intent Intent) (models.AgentRole, []string) {
	lower := strings.ToLower(fragment)
	switch {
	case strings.Contains(lower, "register"), strings.Contains(lower, "approve"),
		strings.Contains(lower, "player"):
		return models.RolePlayerCoordinator, []string{"player_management"}
	case strings.Contains(lower, "match"), strings.Contains(lower, "fixture"),
		strings.Contains(lower, "squad"), strings.Contains(lower, "availab"):
		return models.RoleSquadSelector, []string{"match_management", "attendance"}
	case strings.Contains(lower, "announce"), strings.Contains(lower, "member"),
		strings.Contains(lower, "invite"):
		return models.RoleTeamAdministrator, []string{"team_administration"}
	case intent.Name == IntentHelpRequest:
		return models.RoleHelpAssistant, []string{"help"}
	default:
		return models.RoleMessageProcessor, []string{"general"}
	}
}
