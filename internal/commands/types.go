// Package commands maps textual commands (/foo) to the metadata the router
// needs: the owning feature, the required permission level, the chats the
// command may run in, and the tool it dispatches to. Registration is a
// single explicit phase at startup; after Freeze the registry is read-only
// and reads before Freeze fail loudly.
package commands

import (
	"github.com/kickai-football/kickai/pkg/models"
)

// Descriptor is the static metadata for one command.
type Descriptor struct {
	// Name is the canonical command, lowercase and /-prefixed, e.g. "/list".
	Name string

	// Feature names the feature module the command belongs to.
	Feature string

	// Permission is the minimum caller standing.
	Permission models.PermissionLevel

	// ChatTypes are the chats the command may run in. Registering the same
	// name again with disjoint chat types installs an overlay: the same
	// command resolving to different descriptors in different chats.
	ChatTypes []models.ChatType

	// Aliases resolve to the canonical name.
	Aliases []string

	// Description is shown in help output.
	Description string

	// ToolID is the tool the command dispatches to. Must resolve in the
	// tool registry; the startup validator enforces it.
	ToolID string

	// ToolArgs are fixed arguments attached to the dispatch, used by
	// overlays to vary behavior per chat (e.g. /list shows the full roster
	// in leadership but only active players in main).
	ToolArgs map[string]any

	// Internal hides the command from help listings. Synthetic commands
	// like /linkcontact are internal.
	Internal bool
}

// AllowedIn reports whether the descriptor permits chatType.
func (d *Descriptor) AllowedIn(chatType models.ChatType) bool {
	for _, ct := range d.ChatTypes {
		if ct == chatType {
			return true
		}
	}
	return false
}
