// Package tools is the central directory of named operations agents can
// call. Descriptors carry the full metadata an operation needs for routing
// and access control; the registry resolves IDs and aliases, answers
// classification queries, validates agent access, and wraps schema-carrying
// tools with context validation.
package tools

import (
	"context"

	"github.com/kickai-football/kickai/pkg/models"
)

// ToolFunc is the call surface every tool implements. The request context
// arrives typed as the first domain parameter; free-form arguments ride in
// args. The return value is always a JSON envelope string
// ({status, message?, data?}) — tools never return Go errors and never
// panic outward.
type ToolFunc func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string

// Type classifies what a tool operates on.
type Type string

const (
	TypeCommunication Type = "communication"
	TypePlayerMgmt    Type = "player_management"
	TypeTeamMgmt      Type = "team_management"
	TypeMatchMgmt     Type = "match_management"
	TypeAttendance    Type = "attendance"
	TypePayment       Type = "payment"
	TypeHelp          Type = "help"
	TypeSystem        Type = "system"
	TypeUtility       Type = "utility"
)

// IsValid reports whether t is a known tool type.
func (t Type) IsValid() bool {
	switch t {
	case TypeCommunication, TypePlayerMgmt, TypeTeamMgmt, TypeMatchMgmt,
		TypeAttendance, TypePayment, TypeHelp, TypeSystem, TypeUtility:
		return true
	}
	return false
}

// Category ranks how central a tool is to the product.
type Category string

const (
	CategoryCore    Category = "core"
	CategoryFeature Category = "feature"
	CategoryUtility Category = "utility"
)

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	switch c {
	case CategoryCore, CategoryFeature, CategoryUtility:
		return true
	}
	return false
}

// Descriptor is the static metadata registered for one tool.
type Descriptor struct {
	// ID is the stable tool identifier, e.g. "register_player".
	ID string

	// Description is shown to agents and in help output.
	Description string

	// Type classifies the operation domain.
	Type Type

	// Category is core, feature, or utility.
	Category Category

	// Feature names the feature module the tool belongs to.
	Feature string

	// Version of the tool contract.
	Version string

	// Enabled gates the tool; disabled tools fail access validation.
	Enabled bool

	// RequiredPermission is the minimum caller standing.
	RequiredPermission models.PermissionLevel

	// EntityTypes are the principals the tool can operate on.
	EntityTypes []models.EntityType

	// AccessControl maps agent roles to the entity types they may use this
	// tool for. An empty map means the tool is open to any role.
	AccessControl map[models.AgentRole][]models.EntityType

	// RequiresContext marks tools whose args must validate against
	// ContextSchema before invocation.
	RequiresContext bool

	// ContextSchema is an optional JSON Schema for args. When set, the
	// registry's Callable wrapper validates every call against it.
	ContextSchema []byte

	// Handler executes the tool.
	Handler ToolFunc

	// Aliases are alternative names resolving to this tool.
	Aliases []string
}

// SupportsEntity reports whether the descriptor lists entity among its
// operable entity types. EntityBoth on either side matches player and
// team_member.
func (d *Descriptor) SupportsEntity(entity models.EntityType) bool {
	for _, e := range d.EntityTypes {
		if entityMatches(e, entity) {
			return true
		}
	}
	return false
}

// entityMatches reports whether a granted entity type covers a requested
// one. "both" grants player and team_member in either direction.
func entityMatches(granted, requested models.EntityType) bool {
	if granted == requested {
		return true
	}
	if granted == models.EntityBoth {
		return requested == models.EntityPlayer || requested == models.EntityTeamMember
	}
	if requested == models.EntityBoth {
		return granted == models.EntityPlayer || granted == models.EntityTeamMember
	}
	return false
}
