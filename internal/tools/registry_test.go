package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

func okHandler(reply string) ToolFunc {
	return func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
		return models.SuccessEnvelope(reply, nil)
	}
}

func mustRegister(t *testing.T, r *Registry, d Descriptor) {
	t.Helper()
	if err := r.Register(d); err != nil {
		t.Fatalf("register %s: %v", d.ID, err)
	}
}

func testContext(t *testing.T) models.RequestContext {
	t.Helper()
	text := "/test"
	ctx, err := models.NewRequestContext(models.ContextParams{
		TelegramID:  1001,
		TeamID:      "KAI",
		ChatID:      "-100",
		ChatType:    models.ChatTypeMain,
		MessageText: &text,
	})
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	return ctx
}

func TestRegistry_Register(t *testing.T) {
	t.Run("rejects empty id", func(t *testing.T) {
		r := NewRegistry(nil, nil)
		err := r.Register(Descriptor{Handler: okHandler("x")})
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects nil handler", func(t *testing.T) {
		r := NewRegistry(nil, nil)
		err := r.Register(Descriptor{ID: "ping"})
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		r := NewRegistry(nil, nil)
		mustRegister(t, r, Descriptor{ID: "ping", Enabled: true, Handler: okHandler("pong")})
		err := r.Register(Descriptor{ID: "ping", Enabled: true, Handler: okHandler("pong")})
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("rejects alias colliding with id", func(t *testing.T) {
		r := NewRegistry(nil, nil)
		mustRegister(t, r, Descriptor{ID: "ping", Enabled: true, Handler: okHandler("pong")})
		err := r.Register(Descriptor{ID: "echo", Aliases: []string{"ping"}, Enabled: true, Handler: okHandler("x")})
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("rejects registration after freeze", func(t *testing.T) {
		r := NewRegistry(nil, nil)
		r.Freeze()
		err := r.Register(Descriptor{ID: "ping", Enabled: true, Handler: okHandler("pong")})
		if apperr.CodeOf(err) != apperr.CodeProgramming {
			t.Errorf("expected programming error, got %v", err)
		}
	})

	t.Run("rejects schema that does not compile", func(t *testing.T) {
		r := NewRegistry(nil, nil)
		err := r.Register(Descriptor{
			ID:            "bad_schema",
			Enabled:       true,
			Handler:       okHandler("x"),
			ContextSchema: []byte(`{"type": 12}`),
		})
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Errorf("expected validation error, got %v", err)
		}
	})
}

func TestRegistry_AliasResolution(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{
		ID:      "list_players",
		Aliases: []string{"players", "roster"},
		Enabled: true,
		Handler: okHandler("players"),
	})

	canonical, ok := r.Get("list_players")
	if !ok {
		t.Fatal("canonical lookup failed")
	}
	for _, alias := range []string{"players", "roster", "ROSTER"} {
		got, ok := r.Get(alias)
		if !ok {
			t.Fatalf("alias %q did not resolve", alias)
		}
		if got != canonical {
			t.Errorf("alias %q resolved to a different descriptor", alias)
		}
	}
}

func TestRegistry_UniqueIDs(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{ID: "a", Enabled: true, Handler: okHandler("a")})
	mustRegister(t, r, Descriptor{ID: "b", Enabled: true, Handler: okHandler("b")})

	seen := map[string]bool{}
	for _, id := range r.IDs() {
		if seen[id] {
			t.Errorf("duplicate id %q", id)
		}
		seen[id] = true
	}
	if r.Len() != 2 {
		t.Errorf("Len = %d, want 2", r.Len())
	}
}

func TestRegistry_ValidateAccess(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{
		ID:      "approve_player",
		Type:    TypePlayerMgmt,
		Enabled: true,
		Handler: okHandler("approved"),
		EntityTypes: []models.EntityType{
			models.EntityPlayer,
		},
		AccessControl: map[models.AgentRole][]models.EntityType{
			models.RolePlayerCoordinator: {models.EntityPlayer},
			models.RoleTeamAdministrator: {models.EntityPlayer, models.EntityTeamMember},
		},
	})
	mustRegister(t, r, Descriptor{
		ID:      "open_tool",
		Type:    TypeUtility,
		Enabled: true,
		Handler: okHandler("open"),
	})
	mustRegister(t, r, Descriptor{
		ID:      "disabled_tool",
		Type:    TypeUtility,
		Enabled: false,
		Handler: okHandler("off"),
	})

	tests := []struct {
		name   string
		tool   string
		role   models.AgentRole
		entity models.EntityType
		want   bool
	}{
		{"mapped role with granted entity", "approve_player", models.RolePlayerCoordinator, models.EntityPlayer, true},
		{"mapped role with denied entity", "approve_player", models.RolePlayerCoordinator, models.EntityTeamMember, false},
		{"unmapped role", "approve_player", models.RoleHelpAssistant, models.EntityPlayer, false},
		{"mapped role without entity check", "approve_player", models.RoleTeamAdministrator, "", true},
		{"empty access control is open to every role", "open_tool", models.RoleSquadSelector, models.EntityNeither, true},
		{"empty access control, another role", "open_tool", models.RoleMessageProcessor, models.EntityPlayer, true},
		{"disabled tool always fails", "disabled_tool", models.RoleMessageProcessor, "", false},
		{"unknown tool fails", "missing", models.RoleMessageProcessor, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.ValidateAccess(tt.tool, tt.role, tt.entity); got != tt.want {
				t.Errorf("ValidateAccess(%q, %q, %q) = %v, want %v", tt.tool, tt.role, tt.entity, got, tt.want)
			}
		})
	}
}

func TestRegistry_Callable_SchemaValidation(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{
		ID:              "register_player",
		Type:            TypePlayerMgmt,
		Enabled:         true,
		RequiresContext: true,
		ContextSchema: []byte(`{
			"type": "object",
			"properties": {
				"name": {"type": "string", "minLength": 1},
				"phone": {"type": "string"}
			},
			"required": ["name"]
		}`),
		Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
			return models.SuccessEnvelope("registered "+args["name"].(string), nil)
		},
	})

	call, ok := r.Callable("register_player")
	if !ok {
		t.Fatal("Callable returned false")
	}
	reqCtx := testContext(t)

	t.Run("valid args pass through to the tool", func(t *testing.T) {
		out := call(context.Background(), reqCtx, map[string]any{"name": "John Smith"})
		env, ok := models.ParseEnvelope(out)
		if !ok || env.Status != models.StatusSuccess {
			t.Fatalf("expected success envelope, got %s", out)
		}
		if env.Message != "registered John Smith" {
			t.Errorf("message = %q", env.Message)
		}
	})

	t.Run("invalid args return an error envelope", func(t *testing.T) {
		out := call(context.Background(), reqCtx, map[string]any{"phone": "+447123456789"})
		env, ok := models.ParseEnvelope(out)
		if !ok {
			t.Fatalf("output is not an envelope: %s", out)
		}
		if env.Status != models.StatusError {
			t.Errorf("status = %q, want error", env.Status)
		}
	})

	t.Run("nil args validate like an empty object", func(t *testing.T) {
		out := call(context.Background(), reqCtx, nil)
		env, _ := models.ParseEnvelope(out)
		if env == nil || env.Status != models.StatusError {
			t.Errorf("expected error envelope for missing required field, got %s", out)
		}
	})
}

func TestRegistry_Callable_RecoversPanic(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{
		ID:      "explode",
		Type:    TypeUtility,
		Enabled: true,
		Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
			panic("boom")
		},
	})

	call, _ := r.Callable("explode")
	out := call(context.Background(), testContext(t), nil)
	env, ok := models.ParseEnvelope(out)
	if !ok || env.Status != models.StatusError {
		t.Fatalf("expected error envelope after panic, got %s", out)
	}
	if strings.Contains(env.Message, "boom") {
		t.Error("panic detail leaked into the user-facing message")
	}
}

func TestRegistry_Callable_WithoutSchemaInvokesDirectly(t *testing.T) {
	r := NewRegistry(nil, nil)
	var gotArgs map[string]any
	mustRegister(t, r, Descriptor{
		ID:      "ping",
		Type:    TypeUtility,
		Enabled: true,
		Handler: func(ctx context.Context, reqCtx models.RequestContext, args map[string]any) string {
			gotArgs = args
			return models.SuccessEnvelope("pong", nil)
		},
	})

	call, _ := r.Callable("ping")
	args := map[string]any{"anything": json.Number("1")}
	out := call(context.Background(), testContext(t), args)
	if env, ok := models.ParseEnvelope(out); !ok || env.Status != models.StatusSuccess {
		t.Fatalf("expected success, got %s", out)
	}
	if gotArgs == nil {
		t.Error("args were not forwarded")
	}
}

func TestRegistry_ListHelpers(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{
		ID: "list_players", Type: TypePlayerMgmt, Category: CategoryCore, Feature: "players",
		Enabled: true, RequiredPermission: models.PermissionPlayer,
		EntityTypes: []models.EntityType{models.EntityPlayer},
		Handler:     okHandler("x"),
		AccessControl: map[models.AgentRole][]models.EntityType{
			models.RolePlayerCoordinator: {models.EntityPlayer},
		},
	})
	mustRegister(t, r, Descriptor{
		ID: "get_help", Type: TypeHelp, Category: CategoryCore, Feature: "help",
		Enabled: true, Handler: okHandler("y"),
	})

	if got := r.ListByFeature("players"); len(got) != 1 || got[0].ID != "list_players" {
		t.Errorf("ListByFeature = %v", got)
	}
	if got := r.ListByType(TypeHelp); len(got) != 1 || got[0].ID != "get_help" {
		t.Errorf("ListByType = %v", got)
	}
	if got := r.ListByCategory(CategoryCore); len(got) != 2 {
		t.Errorf("ListByCategory returned %d tools", len(got))
	}
	if got := r.ListByEntityType(models.EntityPlayer); len(got) != 1 {
		t.Errorf("ListByEntityType returned %d tools", len(got))
	}
	if got := r.ListByPermission(models.PermissionPlayer); len(got) != 1 {
		t.Errorf("ListByPermission returned %d tools", len(got))
	}
	// get_help is open; list_players is scoped to the coordinator.
	if got := r.ListForAgent(models.RoleHelpAssistant); len(got) != 1 || got[0].ID != "get_help" {
		t.Errorf("ListForAgent(help_assistant) = %v", got)
	}
	if got := r.ListForAgent(models.RolePlayerCoordinator); len(got) != 2 {
		t.Errorf("ListForAgent(player_coordinator) returned %d tools", len(got))
	}
}

func TestRegistry_FreezeIsSticky(t *testing.T) {
	r := NewRegistry(nil, nil)
	if r.Frozen() {
		t.Fatal("new registry reports frozen")
	}
	r.Freeze()
	if !r.Frozen() {
		t.Fatal("Freeze did not take")
	}
	var appErr *apperr.Error
	err := r.Register(Descriptor{ID: "late", Enabled: true, Handler: okHandler("late")})
	if !errors.As(err, &appErr) || appErr.Code != apperr.CodeProgramming {
		t.Errorf("expected programming error, got %v", err)
	}
}

func TestRegistry_MarkDiscovered(t *testing.T) {
	r := NewRegistry(nil, nil)
	if !r.MarkDiscovered() {
		t.Fatal("first MarkDiscovered returned false")
	}
	if r.MarkDiscovered() {
		t.Fatal("second MarkDiscovered returned true; idempotence guard broken")
	}
	if !r.Discovered() {
		t.Fatal("Discovered returned false after marking")
	}
}
