package commands

import (
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// LinkContactCommand is the synthetic command dispatched when a user
// shares their contact through Telegram's native affordance. It is never
// typed by a user and never shown in help.
const LinkContactCommand = "/linkcontact"

var (
	mainOnly       = []models.ChatType{models.ChatTypeMain}
	leaderOnly     = []models.ChatType{models.ChatTypeLeadership}
	mainAndPrivate = []models.ChatType{models.ChatTypeMain, models.ChatTypePrivate}
	leaderPrivate  = []models.ChatType{models.ChatTypeLeadership, models.ChatTypePrivate}
	everywhere     = []models.ChatType{models.ChatTypeMain, models.ChatTypeLeadership, models.ChatTypePrivate}
)

// Manifest enumerates every command this deployment ships. The explicit
// list replaces decorator-time discovery: what is here is the whole
// command surface, and the startup validator checks it against the tool
// registry.
func Manifest() []Descriptor {
	return []Descriptor{
		{
			Name: "/start", Feature: "system", Permission: models.PermissionPublic,
			ChatTypes: everywhere, ToolID: "get_help",
			ToolArgs:    map[string]any{"welcome": true},
			Description: "Welcome message and first steps",
		},
		{
			Name: "/help", Feature: "help", Permission: models.PermissionPublic,
			ChatTypes: everywhere, Aliases: []string{"/commands"}, ToolID: "get_help",
			Description: "List the commands you can use here",
		},
		{
			Name: "/register", Feature: "players", Permission: models.PermissionPublic,
			ChatTypes: mainAndPrivate, ToolID: "register_player",
			Description: "Register yourself as a player: /register <name> <phone> <position>",
		},
		{
			Name: "/update", Feature: "players", Permission: models.PermissionPlayer,
			ChatTypes: mainAndPrivate, ToolID: "update_player",
			Description: "Update your phone or position: /update <field> <value>",
		},
		{
			Name: "/myinfo", Feature: "players", Permission: models.PermissionPublic,
			ChatTypes: everywhere, Aliases: []string{"/me"}, ToolID: "my_info",
			Description: "Show your registration details",
		},
		{
			// Main chat: active players only.
			Name: "/list", Feature: "players", Permission: models.PermissionPublic,
			ChatTypes: mainOnly, ToolID: "list_players",
			ToolArgs:    map[string]any{"filter": "active"},
			Description: "List active players",
		},
		{
			// Leadership overlay: the full roster, pending included.
			Name: "/list", Feature: "players", Permission: models.PermissionLeadership,
			ChatTypes: leaderPrivate, ToolID: "list_players",
			ToolArgs:    map[string]any{"filter": "all"},
			Description: "List all players including pending registrations",
		},
		{
			Name: "/status", Feature: "players", Permission: models.PermissionPublic,
			ChatTypes: everywhere, ToolID: "player_status",
			Description: "Check a player's status: /status <player id or phone>",
		},
		{
			Name: "/addplayer", Feature: "players", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "add_player",
			Description: "Add a player directly: /addplayer <name> <phone> <position>",
		},
		{
			Name: "/approve", Feature: "players", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "approve_player",
			Description: "Approve a pending registration: /approve <player id>",
		},
		{
			Name: "/reject", Feature: "players", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "reject_player",
			Description: "Reject a pending registration: /reject <player id>",
		},
		{
			Name: "/remove", Feature: "players", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "remove_player",
			Description: "Remove a player from the squad: /remove <player id>",
		},
		{
			Name: "/addmember", Feature: "team", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "add_team_member",
			Description: "Add a team member: /addmember <name> <phone> [role]",
		},
		{
			Name: "/members", Feature: "team", Permission: models.PermissionLeadership,
			ChatTypes: leaderPrivate, ToolID: "list_team_members",
			Description: "List team members",
		},
		{
			Name: "/creatematch", Feature: "matches", Permission: models.PermissionLeadership,
			ChatTypes: leaderOnly, ToolID: "create_match",
			Description: "Create a match: /creatematch <opponent> <date> [location] [competition]",
		},
		{
			Name: "/matches", Feature: "matches", Permission: models.PermissionPublic,
			ChatTypes: everywhere, Aliases: []string{"/fixtures"}, ToolID: "list_matches",
			Description: "List upcoming matches",
		},
		{
			Name: "/selectsquad", Feature: "matches", Permission: models.PermissionLeadership,
			ChatTypes: leaderOnly, ToolID: "select_squad",
			Description: "Select a squad: /selectsquad <match id> <player ids…>",
		},
		{
			Name: "/markattendance", Feature: "attendance", Permission: models.PermissionLeadership,
			ChatTypes: leaderOnly, ToolID: "mark_attendance",
			Description: "Record attendance: /markattendance <match id> <player id> <attended|absent>",
		},
		{
			Name: "/attendance", Feature: "attendance", Permission: models.PermissionPlayer,
			ChatTypes: everywhere, ToolID: "get_attendance",
			Description: "Show attendance for a match: /attendance <match id>",
		},
		{
			Name: "/available", Feature: "attendance", Permission: models.PermissionPlayer,
			ChatTypes: mainAndPrivate, ToolID: "mark_availability",
			ToolArgs:    map[string]any{"status": "yes"},
			Description: "Mark yourself available: /available <match id>",
		},
		{
			Name: "/unavailable", Feature: "attendance", Permission: models.PermissionPlayer,
			ChatTypes: mainAndPrivate, ToolID: "mark_availability",
			ToolArgs:    map[string]any{"status": "no"},
			Description: "Mark yourself unavailable: /unavailable <match id>",
		},
		{
			Name: "/announce", Feature: "communication", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "send_announcement",
			Description: "Broadcast to the main chat: /announce <message>",
		},
		{
			Name: "/invitelink", Feature: "invites", Permission: models.PermissionAdmin,
			ChatTypes: leaderOnly, ToolID: "generate_invite_link",
			Description: "Generate a single-use invite link: /invitelink <main|leadership>",
		},
		{
			Name: "/ping", Feature: "system", Permission: models.PermissionPublic,
			ChatTypes: everywhere, ToolID: "ping",
			Description: "Check the bot is alive",
		},
		{
			Name: "/version", Feature: "system", Permission: models.PermissionPublic,
			ChatTypes: everywhere, ToolID: "get_version",
			Description: "Show the bot version",
		},
		{
			Name: LinkContactCommand, Feature: "players", Permission: models.PermissionPublic,
			ChatTypes: mainAndPrivate, ToolID: "link_contact",
			Description: "Complete registration from a shared contact",
			Internal:    true,
		},
	}
}

// NewInitialized builds, populates, and freezes a registry from the
// manifest. This is the one constructor production code uses.
func NewInitialized(logger *observability.Logger) (*Registry, error) {
	r := New(logger)
	for _, d := range Manifest() {
		if err := r.Register(d); err != nil {
			return nil, err
		}
	}
	r.Freeze()
	return r, nil
}
