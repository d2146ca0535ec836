package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// Registry stores tool descriptors and resolves them by ID or alias.
// Registration happens during startup; Freeze makes the registry read-only
// before the transport starts accepting traffic. Lookups are safe under
// concurrent readers.
type Registry struct {
	mu         sync.RWMutex
	tools      map[string]*Descriptor
	aliases    map[string]string
	schemas    map[string]*jsonschema.Schema
	frozen     bool
	discovered bool

	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewRegistry creates an empty, unfrozen registry. Logger and metrics may
// be nil (tests run unmetered).
func NewRegistry(logger *observability.Logger, metrics *observability.Metrics) *Registry {
	if logger == nil {
		logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return &Registry{
		tools:   make(map[string]*Descriptor),
		aliases: make(map[string]string),
		schemas: make(map[string]*jsonschema.Schema),
		logger:  logger.WithFields("component", "tool_registry"),
		metrics: metrics,
	}
}

// Register validates and stores a descriptor. Descriptors with an empty
// Type get one derived from their ID keywords, along with default access
// control; explicit metadata always wins. Registering on a frozen registry
// is a programming error.
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return apperr.Validation("tool id is required", nil)
	}
	if d.Handler == nil {
		return apperr.Validation("tool handler is required", nil).WithContext("tool_id", d.ID)
	}

	id := strings.ToLower(strings.TrimSpace(d.ID))
	d.ID = id

	if d.Type == "" {
		inferredType, inferredAccess := ClassifyID(id)
		d.Type = inferredType
		if len(d.AccessControl) == 0 {
			d.AccessControl = inferredAccess
		}
	}
	if !d.Type.IsValid() {
		return apperr.Validation(fmt.Sprintf("unknown tool type %q", d.Type), nil).WithContext("tool_id", id)
	}
	if d.Category == "" {
		d.Category = CategoryFeature
	}
	if !d.Category.IsValid() {
		return apperr.Validation(fmt.Sprintf("unknown tool category %q", d.Category), nil).WithContext("tool_id", id)
	}
	if d.Version == "" {
		d.Version = "1.0"
	}
	if d.RequiredPermission == "" {
		d.RequiredPermission = models.PermissionPublic
	}
	if !d.RequiredPermission.IsValid() {
		return apperr.Validation(fmt.Sprintf("unknown permission level %q", d.RequiredPermission), nil).WithContext("tool_id", id)
	}
	if len(d.EntityTypes) == 0 {
		d.EntityTypes = []models.EntityType{models.EntityNeither}
	}
	for _, e := range d.EntityTypes {
		if !e.IsValid() {
			return apperr.Validation(fmt.Sprintf("unknown entity type %q", e), nil).WithContext("tool_id", id)
		}
	}
	for role, entities := range d.AccessControl {
		if role == "" {
			return apperr.Validation("access control role must not be empty", nil).WithContext("tool_id", id)
		}
		for _, e := range entities {
			if !e.IsValid() {
				return apperr.Validation(
					fmt.Sprintf("access control for role %q names unknown entity type %q", role, e), nil,
				).WithContext("tool_id", id)
			}
		}
	}

	var compiled *jsonschema.Schema
	if len(d.ContextSchema) > 0 {
		var err error
		compiled, err = jsonschema.CompileString(id+".schema.json", string(d.ContextSchema))
		if err != nil {
			return apperr.Validation("context schema does not compile", err).WithContext("tool_id", id)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.frozen {
		return apperr.Programming("tool registry is frozen; registration must happen at startup", nil).
			WithContext("tool_id", id)
	}
	if _, exists := r.tools[id]; exists {
		return apperr.Conflict(fmt.Sprintf("tool %q already registered", id), nil)
	}
	if canonical, exists := r.aliases[id]; exists {
		return apperr.Conflict(fmt.Sprintf("tool id %q collides with an alias of %q", id, canonical), nil)
	}
	for _, alias := range d.Aliases {
		a := strings.ToLower(strings.TrimSpace(alias))
		if a == "" || a == id {
			continue
		}
		if _, exists := r.tools[a]; exists {
			return apperr.Conflict(fmt.Sprintf("alias %q collides with tool id %q", a, a), nil).WithContext("tool_id", id)
		}
		if owner, exists := r.aliases[a]; exists {
			return apperr.Conflict(fmt.Sprintf("alias %q already claimed by %q", a, owner), nil).WithContext("tool_id", id)
		}
	}

	r.tools[id] = &d
	for _, alias := range d.Aliases {
		a := strings.ToLower(strings.TrimSpace(alias))
		if a == "" || a == id {
			continue
		}
		r.aliases[a] = id
	}
	if compiled != nil {
		r.schemas[id] = compiled
	}

	r.logger.Debug(context.Background(), "registered tool",
		"tool_id", id, "type", string(d.Type), "feature", d.Feature, "aliases", strings.Join(d.Aliases, ","))
	return nil
}

// Freeze makes the registry read-only. Called once after the manifest has
// been applied.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// Frozen reports whether the registry has been frozen.
func (r *Registry) Frozen() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.frozen
}

// MarkDiscovered records that the builtin manifest has been applied.
// Returns false if it already was, so a repeat application can bail out.
func (r *Registry) MarkDiscovered() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.discovered {
		return false
	}
	r.discovered = true
	return true
}

// Discovered reports whether the builtin manifest has been applied.
func (r *Registry) Discovered() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.discovered
}

// Get resolves a tool by ID or alias.
func (r *Registry) Get(idOrAlias string) (*Descriptor, bool) {
	key := strings.ToLower(strings.TrimSpace(idOrAlias))

	r.mu.RLock()
	defer r.mu.RUnlock()

	if d, ok := r.tools[key]; ok {
		return d, true
	}
	if canonical, ok := r.aliases[key]; ok {
		d, ok := r.tools[canonical]
		return d, ok
	}
	return nil, false
}

// IDs returns the canonical tool IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.tools))
	for id := range r.tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of registered tools (aliases excluded).
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// ListByFeature returns tools belonging to a feature module.
func (r *Registry) ListByFeature(feature string) []*Descriptor {
	return r.filter(func(d *Descriptor) bool { return d.Feature == feature })
}

// ListByType returns tools of one type.
func (r *Registry) ListByType(t Type) []*Descriptor {
	return r.filter(func(d *Descriptor) bool { return d.Type == t })
}

// ListByCategory returns tools of one category.
func (r *Registry) ListByCategory(c Category) []*Descriptor {
	return r.filter(func(d *Descriptor) bool { return d.Category == c })
}

// ListByEntityType returns tools that can operate on entity.
func (r *Registry) ListByEntityType(entity models.EntityType) []*Descriptor {
	return r.filter(func(d *Descriptor) bool { return d.SupportsEntity(entity) })
}

// ListByPermission returns tools requiring exactly level.
func (r *Registry) ListByPermission(level models.PermissionLevel) []*Descriptor {
	return r.filter(func(d *Descriptor) bool { return d.RequiredPermission == level })
}

// ListForAgent returns the enabled tools role may call for at least one
// entity type.
func (r *Registry) ListForAgent(role models.AgentRole) []*Descriptor {
	return r.filter(func(d *Descriptor) bool {
		if !d.Enabled {
			return false
		}
		if len(d.AccessControl) == 0 {
			return true
		}
		_, ok := d.AccessControl[role]
		return ok
	})
}

func (r *Registry) filter(keep func(*Descriptor) bool) []*Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Descriptor
	for _, d := range r.tools {
		if keep(d) {
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ValidateAccess reports whether role may call the tool for entity. The
// rule: the tool must exist and be enabled; an empty access-control map
// means open to any role; otherwise the role must be mapped and, when an
// entity type is given, that type must be in the mapped set. Passing an
// empty entity skips the entity check.
func (r *Registry) ValidateAccess(toolID string, role models.AgentRole, entity models.EntityType) bool {
	d, ok := r.Get(toolID)
	if !ok || !d.Enabled {
		return false
	}
	if len(d.AccessControl) == 0 {
		return true
	}
	granted, ok := d.AccessControl[role]
	if !ok {
		return false
	}
	if entity == "" {
		return true
	}
	for _, g := range granted {
		if entityMatches(g, entity) {
			return true
		}
	}
	return false
}

// Callable returns the invocable handler for a tool. Handlers are wrapped
// so that panics become error envelopes, execution is metered and traced,
// and — for descriptors carrying a context schema — args are validated
// before the underlying tool runs. Validation failure returns a structured
// error envelope and logs a warning; it never raises.
func (r *Registry) Callable(idOrAlias string) (ToolFunc, bool) {
	d, ok := r.Get(idOrAlias)
	if !ok {
		return nil, false
	}

	r.mu.RLock()
	schema := r.schemas[d.ID]
	r.mu.RUnlock()

	handler := d.Handler
	toolID := d.ID
	return func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) (out string) {
		start := time.Now()
		status := "success"
		defer func() {
			if rec := recover(); rec != nil {
				r.logger.Error(ctx, "tool panicked", "tool_id", toolID, "panic", fmt.Sprint(rec))
				status = "error"
				out = models.ErrorEnvelope("Sorry, I ran into a problem handling that. Please try again in a moment.")
			}
			r.metrics.RecordToolExecution(toolID, status, time.Since(start).Seconds())
		}()

		if schema != nil {
			if err := schema.Validate(normalizeArgs(args)); err != nil {
				r.logger.Warn(ctx, "tool context validation failed", "tool_id", toolID, "error", err)
				status = "error"
				return models.ErrorEnvelope(fmt.Sprintf("Invalid request for %s: %v", toolID, shortValidationError(err)))
			}
		}

		out = handler(ctx, reqCtx, args)
		if env, ok := models.ParseEnvelope(out); ok && env.Status == models.StatusError {
			status = "error"
		}
		return out
	}, true
}

// normalizeArgs makes args validatable: jsonschema expects decoded-JSON
// values, and a nil map must validate like an empty object.
func normalizeArgs(args map[string]any) any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

// shortValidationError strips the schema URL noise from jsonschema's
// multi-line errors, keeping the leaf cause.
func shortValidationError(err error) string {
	var ve *jsonschema.ValidationError
	if ok := asValidationError(err, &ve); ok {
		leaf := ve
		for len(leaf.Causes) > 0 {
			leaf = leaf.Causes[0]
		}
		if loc := strings.TrimPrefix(leaf.InstanceLocation, "/"); loc != "" {
			return fmt.Sprintf("%s: %s", loc, leaf.Message)
		}
		return leaf.Message
	}
	return err.Error()
}

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	ve, ok := err.(*jsonschema.ValidationError)
	if ok {
		*target = ve
	}
	return ok
}
