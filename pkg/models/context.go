// Package models defines the shared data types that flow between the
// Telegram transport, the agentic router, the orchestration pipeline, and
// the tools: the request context, the tool response envelope, and the
// persisted domain entities.
package models

import (
	"fmt"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
)

// ChatType identifies the scope of the conversation a message arrived in.
type ChatType string

const (
	// ChatTypeMain is the team's player chat.
	ChatTypeMain ChatType = "main"
	// ChatTypeLeadership is the team's administrator chat.
	ChatTypeLeadership ChatType = "leadership"
	// ChatTypePrivate is a direct message with the bot.
	ChatTypePrivate ChatType = "private"
	// ChatTypeSystem marks internally generated requests.
	ChatTypeSystem ChatType = "system"
)

// IsValid reports whether t is one of the known chat types.
func (t ChatType) IsValid() bool {
	switch t {
	case ChatTypeMain, ChatTypeLeadership, ChatTypePrivate, ChatTypeSystem:
		return true
	}
	return false
}

// Origin records how a request entered the system.
type Origin string

const (
	OriginTelegramMessage Origin = "telegram_message"
	OriginCommand         Origin = "command"
	OriginNaturalLanguage Origin = "natural_language"
	OriginSystem          Origin = "system"
)

// IsValid reports whether o is one of the known origins.
func (o Origin) IsValid() bool {
	switch o {
	case OriginTelegramMessage, OriginCommand, OriginNaturalLanguage, OriginSystem:
		return true
	}
	return false
}

// EntityType is the kind of principal an operation acts on.
type EntityType string

const (
	EntityPlayer     EntityType = "player"
	EntityTeamMember EntityType = "team_member"
	EntityBoth       EntityType = "both"
	EntityNeither    EntityType = "neither"
)

// IsValid reports whether e is one of the known entity types.
func (e EntityType) IsValid() bool {
	switch e {
	case EntityPlayer, EntityTeamMember, EntityBoth, EntityNeither:
		return true
	}
	return false
}

// AgentRole names a role-specialized agent.
type AgentRole string

const (
	// RoleMessageProcessor is the general-purpose fallback agent. It must
	// exist in every configured agent set.
	RoleMessageProcessor  AgentRole = "message_processor"
	RoleHelpAssistant     AgentRole = "help_assistant"
	RolePlayerCoordinator AgentRole = "player_coordinator"
	RoleTeamAdministrator AgentRole = "team_administrator"
	RoleSquadSelector     AgentRole = "squad_selector"
)

// MaxTeamIDLength bounds tenant identifiers so they stay usable as
// collection-name fragments.
const MaxTeamIDLength = 20

// DefaultUsername is substituted when the transport provides no username.
const DefaultUsername = "unknown"

// RequestContext is the single descriptor carried end-to-end for one
// inbound request: caller identity, tenant, chat scope, raw text, and the
// permission snapshot taken by the router. It is created exactly once per
// request and treated as immutable; pass it by value and use WithMetadata
// to derive variants.
type RequestContext struct {
	TelegramID  int64    `json:"telegram_id"`
	Username    string   `json:"username"`
	DisplayName string   `json:"display_name"`
	TeamID      string   `json:"team_id"`
	ChatID      string   `json:"chat_id"`
	ChatType    ChatType `json:"chat_type"`
	MessageText string   `json:"message_text"`

	IsPlayer     bool `json:"is_player"`
	IsTeamMember bool `json:"is_team_member"`
	IsAdmin      bool `json:"is_admin"`
	IsLeadership bool `json:"is_leadership"`

	Origin    Origin            `json:"origin"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// ContextParams carries the inputs to NewRequestContext. MessageText is a
// pointer so an empty message can be distinguished from a missing one.
type ContextParams struct {
	TelegramID   int64
	Username     string
	DisplayName  string
	TeamID       string
	ChatID       string
	ChatType     ChatType
	MessageText  *string
	IsPlayer     bool
	IsTeamMember bool
	IsAdmin      bool
	IsLeadership bool
	Origin       Origin
	Metadata     map[string]string
}

// NewRequestContext validates params and builds an immutable context.
// The permission snapshot must be internally consistent: admin and
// leadership flags require membership (player or team member).
func NewRequestContext(p ContextParams) (RequestContext, error) {
	if p.TelegramID <= 0 {
		return RequestContext{}, apperr.Validation("telegram_id must be positive", nil).
			WithContext("telegram_id", p.TelegramID)
	}
	if p.TeamID == "" {
		return RequestContext{}, apperr.Validation("team_id is required", nil)
	}
	if len(p.TeamID) > MaxTeamIDLength {
		return RequestContext{}, apperr.Validation(
			fmt.Sprintf("team_id exceeds %d characters", MaxTeamIDLength), nil,
		).WithContext("team_id", p.TeamID)
	}
	if p.ChatID == "" {
		return RequestContext{}, apperr.Validation("chat_id is required", nil)
	}
	if !p.ChatType.IsValid() {
		return RequestContext{}, apperr.Validation(fmt.Sprintf("unknown chat_type %q", p.ChatType), nil)
	}
	if p.MessageText == nil {
		return RequestContext{}, apperr.Validation("message_text is required (may be empty, not absent)", nil)
	}
	member := p.IsPlayer || p.IsTeamMember
	if p.IsAdmin && !member {
		return RequestContext{}, apperr.Validation("is_admin requires player or team member status", nil)
	}
	if p.IsLeadership && !member {
		return RequestContext{}, apperr.Validation("is_leadership requires player or team member status", nil)
	}

	username := p.Username
	if username == "" {
		username = DefaultUsername
	}
	origin := p.Origin
	if origin == "" {
		origin = OriginTelegramMessage
	}
	if !origin.IsValid() {
		return RequestContext{}, apperr.Validation(fmt.Sprintf("unknown origin %q", origin), nil)
	}

	return RequestContext{
		TelegramID:   p.TelegramID,
		Username:     username,
		DisplayName:  p.DisplayName,
		TeamID:       p.TeamID,
		ChatID:       p.ChatID,
		ChatType:     p.ChatType,
		MessageText:  *p.MessageText,
		IsPlayer:     p.IsPlayer,
		IsTeamMember: p.IsTeamMember,
		IsAdmin:      p.IsAdmin,
		IsLeadership: p.IsLeadership,
		Origin:       origin,
		Timestamp:    time.Now().UTC(),
		Metadata:     copyMetadata(p.Metadata),
	}, nil
}

// IsRegistered reports whether the caller is known to the team in any
// capacity.
func (c RequestContext) IsRegistered() bool {
	return c.IsPlayer || c.IsTeamMember
}

// MetaValue returns the metadata value for key, if present.
func (c RequestContext) MetaValue(key string) (string, bool) {
	v, ok := c.Metadata[key]
	return v, ok
}

// WithMetadata returns a copy of the context with key set in its metadata.
// The receiver is not modified.
func (c RequestContext) WithMetadata(key, value string) RequestContext {
	meta := copyMetadata(c.Metadata)
	if meta == nil {
		meta = make(map[string]string, 1)
	}
	meta[key] = value
	c.Metadata = meta
	return c
}

// WithMessageText returns a copy of the context carrying text as its
// payload. Used by the router when it rewrites a transport event into a
// synthetic command.
func (c RequestContext) WithMessageText(text string, origin Origin) RequestContext {
	c.MessageText = text
	if origin != "" {
		c.Origin = origin
	}
	c.Metadata = copyMetadata(c.Metadata)
	return c
}

// ToMap serializes the context for logging and cross-agent delegation.
// FromMap inverts it exactly.
func (c RequestContext) ToMap() map[string]any {
	m := map[string]any{
		"telegram_id":    c.TelegramID,
		"username":       c.Username,
		"display_name":   c.DisplayName,
		"team_id":        c.TeamID,
		"chat_id":        c.ChatID,
		"chat_type":      string(c.ChatType),
		"message_text":   c.MessageText,
		"is_player":      c.IsPlayer,
		"is_team_member": c.IsTeamMember,
		"is_admin":       c.IsAdmin,
		"is_leadership":  c.IsLeadership,
		"is_registered":  c.IsRegistered(),
		"origin":         string(c.Origin),
		"timestamp":      c.Timestamp.Format(time.RFC3339Nano),
	}
	if len(c.Metadata) > 0 {
		meta := make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			meta[k] = v
		}
		m["metadata"] = meta
	}
	return m
}

// FromMap rebuilds a context serialized with ToMap. Missing or malformed
// required fields yield a validation error.
func FromMap(m map[string]any) (RequestContext, error) {
	telegramID, err := intField(m, "telegram_id")
	if err != nil {
		return RequestContext{}, err
	}
	text, ok := m["message_text"].(string)
	if !ok {
		return RequestContext{}, apperr.Validation("message_text is required (may be empty, not absent)", nil)
	}

	var meta map[string]string
	if raw, ok := m["metadata"].(map[string]any); ok {
		meta = make(map[string]string, len(raw))
		for k, v := range raw {
			meta[k] = fmt.Sprint(v)
		}
	} else if typed, ok := m["metadata"].(map[string]string); ok {
		meta = copyMetadata(typed)
	}

	ctx, err := NewRequestContext(ContextParams{
		TelegramID:   telegramID,
		Username:     stringField(m, "username"),
		DisplayName:  stringField(m, "display_name"),
		TeamID:       stringField(m, "team_id"),
		ChatID:       stringField(m, "chat_id"),
		ChatType:     ChatType(stringField(m, "chat_type")),
		MessageText:  &text,
		IsPlayer:     boolField(m, "is_player"),
		IsTeamMember: boolField(m, "is_team_member"),
		IsAdmin:      boolField(m, "is_admin"),
		IsLeadership: boolField(m, "is_leadership"),
		Origin:       Origin(stringField(m, "origin")),
		Metadata:     meta,
	})
	if err != nil {
		return RequestContext{}, err
	}

	if raw := stringField(m, "timestamp"); raw != "" {
		ts, perr := time.Parse(time.RFC3339Nano, raw)
		if perr != nil {
			return RequestContext{}, apperr.Validation("timestamp is not RFC 3339", perr)
		}
		ctx.Timestamp = ts
	}
	return ctx, nil
}

func copyMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolField(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func intField(m map[string]any, key string) (int64, error) {
	switch v := m[key].(type) {
	case int64:
		return v, nil
	case int:
		return int64(v), nil
	case float64:
		return int64(v), nil
	default:
		return 0, apperr.Validation(fmt.Sprintf("%s is required and must be numeric", key), nil)
	}
}
