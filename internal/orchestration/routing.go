package orchestration

import (
	"strings"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/pkg/models"
)

// route builds the entity operation context: the agent role to execute
// under, the tool to dispatch when the request is a command, and the
// merged parameters. Unroutable requests land on message_processor.
func route(exec *Execution, cmds *commands.Registry, agents map[models.AgentRole]*agent.Agent) Operation {
	op := Operation{
		Description: exec.Task,
		Parameters:  mergeParams(nil, exec.Parameters),
		EntityType:  exec.Validation.EntityType,
		Validation:  exec.Validation,
		AgentRole:   models.RoleMessageProcessor,
	}

	first, _, _ := strings.Cut(strings.TrimSpace(exec.Task), " ")
	if strings.HasPrefix(first, "/") {
		if d, ok := cmds.GetForChat(first, exec.ReqCtx.ChatType); ok {
			op.ToolID = d.ToolID
			op.Parameters = mergeParams(d.ToolArgs, exec.Parameters)
		}
	}

	if role := exec.Validation.SuggestedRole; role != "" {
		if _, ok := agents[role]; ok {
			op.AgentRole = role
		}
	}
	return op
}

// mergeParams overlays request parameters on the command's fixed
// arguments. Request values win.
func mergeParams(fixed, request map[string]any) map[string]any {
	merged := make(map[string]any, len(fixed)+len(request))
	for k, v := range fixed {
		merged[k] = v
	}
	for k, v := range request {
		merged[k] = v
	}
	return merged
}
