package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// Registry stores command descriptors with a per-chat-type overlay: the
// same name may resolve to different descriptors in the main and
// leadership chats. Writes happen only during startup; Freeze makes the
// registry read-only, and read accessors panic with a programming error
// when called before Freeze — consumers must never see a half-built
// registry.
type Registry struct {
	mu sync.RWMutex

	// byChat maps chat type -> name -> descriptor. A descriptor appears
	// under every chat type it declares.
	byChat map[models.ChatType]map[string]*Descriptor

	// primary maps name -> first registered descriptor, the default scope
	// used for existence checks and alias resolution.
	primary map[string]*Descriptor

	aliases map[string]string
	frozen  bool

	logger *observability.Logger
}

// New creates an empty, unfrozen registry.
func New(logger *observability.Logger) *Registry {
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return &Registry{
		byChat:  make(map[models.ChatType]map[string]*Descriptor),
		primary: make(map[string]*Descriptor),
		aliases: make(map[string]string),
		logger:  logger.WithFields("component", "command_registry"),
	}
}

// Register validates and stores a descriptor. No two descriptors may claim
// the same (name, chat type) pair; a second registration of an existing
// name with non-overlapping chat types installs an overlay.
func (r *Registry) Register(d Descriptor) error {
	name := strings.ToLower(strings.TrimSpace(d.Name))
	if name == "" {
		return apperr.Validation("command name is required", nil)
	}
	if !strings.HasPrefix(name, "/") {
		return apperr.Validation(fmt.Sprintf("command name %q must start with /", name), nil)
	}
	if name != d.Name {
		d.Name = name
	}
	if d.ToolID == "" {
		return apperr.Validation(fmt.Sprintf("command %s has no tool id", name), nil)
	}
	if d.Permission == "" {
		d.Permission = models.PermissionPublic
	}
	if !d.Permission.IsValid() {
		return apperr.Validation(fmt.Sprintf("command %s has unknown permission %q", name, d.Permission), nil)
	}
	if len(d.ChatTypes) == 0 {
		return apperr.Validation(fmt.Sprintf("command %s declares no chat types", name), nil)
	}
	for _, ct := range d.ChatTypes {
		if !ct.IsValid() {
			return apperr.Validation(fmt.Sprintf("command %s declares unknown chat type %q", name, ct), nil)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return apperr.Programming("command registry is frozen; registration must happen at startup", nil).
			WithContext("command", name)
	}

	for _, ct := range d.ChatTypes {
		if _, exists := r.byChat[ct][name]; exists {
			return apperr.Conflict(fmt.Sprintf("command %s already registered for chat type %s", name, ct), nil)
		}
	}
	if owner, exists := r.aliases[name]; exists {
		return apperr.Conflict(fmt.Sprintf("command name %s collides with an alias of %s", name, owner), nil)
	}
	for _, alias := range d.Aliases {
		a := normalizeAlias(alias)
		if a == "" || a == name {
			continue
		}
		if _, exists := r.primary[a]; exists {
			return apperr.Conflict(fmt.Sprintf("alias %s collides with command %s", a, a), nil).WithContext("command", name)
		}
		if owner, exists := r.aliases[a]; exists && owner != name {
			return apperr.Conflict(fmt.Sprintf("alias %s already claimed by %s", a, owner), nil).WithContext("command", name)
		}
	}

	desc := d
	for _, ct := range d.ChatTypes {
		if r.byChat[ct] == nil {
			r.byChat[ct] = make(map[string]*Descriptor)
		}
		r.byChat[ct][name] = &desc
	}
	if _, exists := r.primary[name]; !exists {
		r.primary[name] = &desc
	}
	for _, alias := range d.Aliases {
		a := normalizeAlias(alias)
		if a == "" || a == name {
			continue
		}
		r.aliases[a] = name
	}

	r.logger.Debug(context.Background(), "registered command",
		"command", name, "feature", d.Feature, "tool_id", d.ToolID)
	return nil
}

// Freeze makes the registry read-only and its read accessors usable.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Initialized reports whether Freeze has run.
func (r *Registry) Initialized() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// mustInitialized panics when the registry is read before Freeze. Reading
// a half-built registry is the race the original two-phase design papered
// over; here it is simply a bug.
func (r *Registry) mustInitialized() {
	if !r.frozen {
		panic(apperr.Programming("command registry read before initialization", nil))
	}
}

// Resolve canonicalizes a name or alias. The boolean is false for unknown
// commands.
func (r *Registry) Resolve(nameOrAlias string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(nameOrAlias))

	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustInitialized()

	if _, ok := r.primary[key]; ok {
		return key, true
	}
	if canonical, ok := r.aliases[key]; ok {
		return canonical, true
	}
	return "", false
}

// Get returns the default-scope descriptor for a name or alias.
func (r *Registry) Get(nameOrAlias string) (*Descriptor, bool) {
	canonical, ok := r.Resolve(nameOrAlias)
	if !ok {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.primary[canonical]
	return d, ok
}

// GetForChat resolves a name or alias in the scope of one chat type,
// applying the overlay. The boolean is false when the command does not
// exist for that chat; use Get to distinguish an unknown command from a
// chat-scope violation.
func (r *Registry) GetForChat(nameOrAlias string, chatType models.ChatType) (*Descriptor, bool) {
	canonical, ok := r.Resolve(nameOrAlias)
	if !ok {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byChat[chatType][canonical]
	return d, ok
}

// List returns every registered descriptor, deduplicated across overlays,
// sorted by name then chat scope.
func (r *Registry) List() []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustInitialized()

	seen := make(map[*Descriptor]bool)
	var out []*Descriptor
	for _, byName := range r.byChat {
		for _, d := range byName {
			if !seen[d] {
				seen[d] = true
				out = append(out, d)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return len(out[i].ChatTypes) < len(out[j].ChatTypes)
	})
	return out
}

// ListForChat returns the descriptors available in one chat type, sorted.
func (r *Registry) ListForChat(chatType models.ChatType) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustInitialized()

	out := make([]*Descriptor, 0, len(r.byChat[chatType]))
	for _, d := range r.byChat[chatType] {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ListByFeature returns commands belonging to a feature module.
func (r *Registry) ListByFeature(feature string) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.List() {
		if d.Feature == feature {
			out = append(out, d)
		}
	}
	return out
}

// ListByPermission returns commands requiring exactly level.
func (r *Registry) ListByPermission(level models.PermissionLevel) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.List() {
		if d.Permission == level {
			out = append(out, d)
		}
	}
	return out
}

// AvailableFor returns the non-internal commands the caller may actually
// run: scoped to their chat type and filtered by their permission
// snapshot. This is what /help shows.
func (r *Registry) AvailableFor(reqCtx models.RequestContext) []*Descriptor {
	var out []*Descriptor
	for _, d := range r.ListForChat(reqCtx.ChatType) {
		if d.Internal {
			continue
		}
		if !d.Permission.SatisfiedBy(reqCtx) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// Names returns the canonical command names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	r.mustInitialized()

	names := make([]string, 0, len(r.primary))
	for name := range r.primary {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func normalizeAlias(alias string) string {
	a := strings.ToLower(strings.TrimSpace(alias))
	if a == "" {
		return ""
	}
	if !strings.HasPrefix(a, "/") {
		a = "/" + a
	}
	return a
}
