package models

// PermissionLevel is the minimum standing a caller needs for a command or
// tool. Levels are checked against the permission snapshot on the request
// context, not against live database state.
type PermissionLevel string

const (
	// PermissionPublic is open to anyone, registered or not.
	PermissionPublic PermissionLevel = "public"
	// PermissionPlayer requires registration as a player or team member.
	PermissionPlayer PermissionLevel = "player"
	// PermissionLeadership requires leadership standing (or admin, which
	// implies it).
	PermissionLeadership PermissionLevel = "leadership"
	// PermissionAdmin requires the admin flag.
	PermissionAdmin PermissionLevel = "admin"
)

// IsValid reports whether p is a known permission level.
func (p PermissionLevel) IsValid() bool {
	switch p {
	case PermissionPublic, PermissionPlayer, PermissionLeadership, PermissionAdmin:
		return true
	}
	return false
}

// SatisfiedBy reports whether the caller described by c meets the level.
func (p PermissionLevel) SatisfiedBy(c RequestContext) bool {
	switch p {
	case PermissionPublic:
		return true
	case PermissionPlayer:
		return c.IsRegistered()
	case PermissionLeadership:
		return c.IsLeadership || c.IsAdmin
	case PermissionAdmin:
		return c.IsAdmin
	}
	return false
}
