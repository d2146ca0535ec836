package startup

import (
	"context"
	"net/url"
	"os"
	"runtime"
	"strings"

	"github.com/kickai-football/kickai/internal/agent"
	"github.com/kickai-football/kickai/internal/commands"
	"github.com/kickai-football/kickai/internal/config"
	"github.com/kickai-football/kickai/pkg/models"
)

// requiredCommands must exist in the command registry for the bot to be
// usable at all.
var requiredCommands = []string{
	"/start", "/help", "/register", "/list", "/approve", "/ping",
}

// groupChatTypes are the scopes overlays can hide behind; the validator
// inspects each one.
var groupChatTypes = []models.ChatType{
	models.ChatTypeMain, models.ChatTypeLeadership, models.ChatTypePrivate,
}

func (v *Validator) checkConfiguration(context.Context) result {
	cfg := v.deps.Config
	if cfg == nil {
		return fail("no configuration loaded")
	}
	if len(cfg.Security.InviteSecretKey) < config.MinInviteSecretLength {
		return fail("invite_secret_key must be at least %d characters (set %s)",
			config.MinInviteSecretLength, config.EnvInviteSecretKey)
	}
	if !config.ValidProvider(cfg.AI.Provider) {
		return fail("ai provider %q is not one of ollama, openai, google, mock", cfg.AI.Provider)
	}
	if cfg.AI.BaseURL != "" {
		if _, err := url.ParseRequestURI(cfg.AI.BaseURL); err != nil {
			return fail("ai base_url %q is not a URL", cfg.AI.BaseURL)
		}
	}
	if cfg.Database.ProjectID == "" {
		return fail("database project_id is required (set %s)", config.EnvDBProjectID)
	}
	res := pass("required fields present")
	res.details = map[string]any{
		"provider":   cfg.AI.Provider,
		"project_id": cfg.Database.ProjectID,
	}
	return res
}

// checkProvider sends a one-token completion so a dead endpoint or bad
// API key surfaces at startup, not on the first user message.
func (v *Validator) checkProvider(ctx context.Context) result {
	p := v.deps.Provider
	if p == nil {
		return fail("no LLM provider configured")
	}

	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	ch, err := p.Complete(ctx, &agent.CompletionRequest{
		Model:     v.deps.DefaultModel,
		Messages:  []agent.Message{{Role: agent.RoleUser, Content: "ping"}},
		MaxTokens: 1,
	})
	if err != nil {
		return fail("provider %s rejected the probe: %v", p.Name(), err)
	}
	for chunk := range ch {
		if chunk.Error != nil {
			return fail("provider %s probe failed: %v", p.Name(), chunk.Error)
		}
		if chunk.Done {
			break
		}
	}
	res := pass("provider %s answered the probe", p.Name())
	res.details = map[string]any{"provider": p.Name(), "supports_tools": p.SupportsTools()}
	return res
}

func (v *Validator) checkDatabase(ctx context.Context) result {
	db := v.deps.Database
	if db == nil {
		return fail("no database connection")
	}
	if err := db.Ping(ctx); err != nil {
		return fail("ping failed: %v", err)
	}
	names, err := db.ListCollections(ctx)
	if err != nil {
		return fail("collection listing failed: %v", err)
	}
	res := pass("database %s reachable", db.DatabaseName())
	res.details = map[string]any{"database": db.DatabaseName(), "collections": len(names)}
	return res
}

func (v *Validator) checkToolRegistry(context.Context) result {
	reg := v.deps.Tools
	if reg == nil {
		return fail("no tool registry")
	}
	if reg.Len() == 0 {
		return fail("tool registry is empty")
	}
	if !reg.Frozen() {
		return fail("tool registry is not frozen")
	}
	for _, id := range reg.IDs() {
		d, ok := reg.Get(id)
		if !ok {
			return fail("tool %s listed but not resolvable", id)
		}
		if d.Enabled && d.Handler == nil {
			return fail("enabled tool %s has no handler", id)
		}
	}
	res := pass("%d tools registered and frozen", reg.Len())
	res.details = map[string]any{"tools": reg.Len()}
	return res
}

func (v *Validator) checkCommandRegistry(context.Context) result {
	reg := v.deps.Commands
	if reg == nil {
		return fail("no command registry")
	}
	if !reg.Initialized() {
		return fail("command registry is not frozen")
	}
	var missing []string
	for _, name := range requiredCommands {
		if _, ok := reg.Resolve(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fail("required commands missing: %s", strings.Join(missing, ", "))
	}
	// Registration enforces (name, chat_type) uniqueness; a duplicate here
	// means the registry invariant broke.
	for _, chat := range groupChatTypes {
		seen := make(map[string]bool)
		for _, d := range reg.ListForChat(chat) {
			if seen[d.Name] {
				return fail("command %s resolves twice in %s chats", d.Name, chat)
			}
			seen[d.Name] = true
		}
	}
	res := pass("%d commands registered and frozen", len(reg.Names()))
	res.details = map[string]any{"commands": len(reg.Names())}
	return res
}

// checkRegistrySync proves the cross-registry invariant: every command
// dispatches to a real tool, and every configured agent's tool list
// resolves.
func (v *Validator) checkRegistrySync(context.Context) result {
	cmds, reg := v.deps.Commands, v.deps.Tools
	if cmds == nil || reg == nil {
		return fail("registries unavailable")
	}

	// Descriptors are shared between the per-chat and full listings, so
	// dedupe by identity or the reported total counts bindings twice.
	checked := make(map[*commands.Descriptor]bool)
	for _, chat := range groupChatTypes {
		for _, d := range cmds.ListForChat(chat) {
			if _, ok := reg.Get(d.ToolID); !ok {
				return fail("command %s names unknown tool %s", d.Name, d.ToolID)
			}
			checked[d] = true
		}
	}
	for _, d := range cmds.List() {
		if _, ok := reg.Get(d.ToolID); !ok {
			return fail("command %s names unknown tool %s", d.Name, d.ToolID)
		}
		checked[d] = true
	}

	if v.deps.Config != nil {
		for _, a := range v.deps.Config.Agents {
			for _, toolID := range a.Tools {
				if _, ok := reg.Get(toolID); !ok {
					return fail("agent %s names unknown tool %s", a.Role, toolID)
				}
			}
		}
	}
	return pass("%d command bindings resolve", len(checked))
}

// checkAgents dry-runs the factory so a bad agent configuration stops the
// process instead of producing an agent that fails on first use.
func (v *Validator) checkAgents(context.Context) result {
	if v.deps.AgentFactory == nil {
		return fail("no agent factory")
	}
	var cfgs []config.AgentConfig
	if v.deps.Config != nil {
		cfgs = v.deps.Config.Agents
	}
	agents, err := v.deps.AgentFactory.Build(cfgs, v.deps.DefaultModel)
	if err != nil {
		return fail("agent construction failed: %v", err)
	}
	res := pass("%d agents constructed", len(agents))
	res.details = map[string]any{"agents": len(agents)}
	return res
}

// checkPlaceholders scans the declarative manifests for stubs that
// slipped through: blank descriptions, TODO text, enabled tools with no
// handler.
func (v *Validator) checkPlaceholders(context.Context) result {
	var findings []string

	if reg := v.deps.Tools; reg != nil {
		for _, id := range reg.IDs() {
			d, ok := reg.Get(id)
			if !ok {
				continue
			}
			desc := strings.ToLower(d.Description)
			switch {
			case strings.TrimSpace(d.Description) == "":
				findings = append(findings, "tool "+id+" has no description")
			case strings.Contains(desc, "todo") || strings.Contains(desc, "placeholder"):
				findings = append(findings, "tool "+id+" description looks like a stub")
			}
			if d.Enabled && d.Handler == nil {
				findings = append(findings, "tool "+id+" is enabled without a handler")
			}
		}
	}
	if cmds := v.deps.Commands; cmds != nil {
		for _, d := range cmds.List() {
			desc := strings.ToLower(d.Description)
			switch {
			case strings.TrimSpace(d.Description) == "":
				findings = append(findings, "command "+d.Name+" has no description")
			case strings.Contains(desc, "todo") || strings.Contains(desc, "placeholder"):
				findings = append(findings, "command "+d.Name+" description looks like a stub")
			}
		}
	}

	if len(findings) > 0 {
		res := warn("%d placeholder markers found", len(findings))
		res.details = map[string]any{"findings": findings}
		return res
	}
	return pass("manifests carry no placeholder markers")
}

func (v *Validator) checkEnvironment(context.Context) result {
	details := map[string]any{
		"go_version": runtime.Version(),
		"gomaxprocs": runtime.GOMAXPROCS(0),
		"num_cpu":    runtime.NumCPU(),
	}

	f, err := os.CreateTemp("", "kickai-startup-*")
	if err != nil {
		res := warn("temp directory is not writable: %v", err)
		res.details = details
		return res
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)

	if runtime.GOMAXPROCS(0) < 2 {
		res := warn("GOMAXPROCS is %d; concurrent update handling will serialize", runtime.GOMAXPROCS(0))
		res.details = details
		return res
	}

	res := pass("runtime %s, %d procs", runtime.Version(), runtime.GOMAXPROCS(0))
	res.details = details
	return res
}
