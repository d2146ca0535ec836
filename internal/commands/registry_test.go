package commands

import (
	"testing"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

func playerCtx(t *testing.T, chatType models.ChatType, admin bool) models.RequestContext {
	t.Helper()
	text := "/help"
	ctx, err := models.NewRequestContext(models.ContextParams{
		TelegramID:   42,
		TeamID:       "KAI",
		ChatID:       "-100",
		ChatType:     chatType,
		MessageText:  &text,
		IsPlayer:     true,
		IsAdmin:      admin,
		IsLeadership: admin,
	})
	if err != nil {
		t.Fatalf("build context: %v", err)
	}
	return ctx
}

func TestRegistry_Register_Errors(t *testing.T) {
	tests := []struct {
		name string
		desc Descriptor
		code apperr.Code
	}{
		{"empty name", Descriptor{ToolID: "x", ChatTypes: mainOnly}, apperr.CodeValidation},
		{"missing slash", Descriptor{Name: "help", ToolID: "x", ChatTypes: mainOnly}, apperr.CodeValidation},
		{"missing tool id", Descriptor{Name: "/help", ChatTypes: mainOnly}, apperr.CodeValidation},
		{"no chat types", Descriptor{Name: "/help", ToolID: "x"}, apperr.CodeValidation},
		{"bad chat type", Descriptor{Name: "/help", ToolID: "x", ChatTypes: []models.ChatType{"group"}}, apperr.CodeValidation},
		{"bad permission", Descriptor{Name: "/help", ToolID: "x", ChatTypes: mainOnly, Permission: "root"}, apperr.CodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(nil)
			err := r.Register(tt.desc)
			if apperr.CodeOf(err) != tt.code {
				t.Errorf("code = %v, want %v (err: %v)", apperr.CodeOf(err), tt.code, err)
			}
		})
	}

	t.Run("duplicate (name, chat type)", func(t *testing.T) {
		r := New(nil)
		if err := r.Register(Descriptor{Name: "/list", ToolID: "a", ChatTypes: mainOnly}); err != nil {
			t.Fatal(err)
		}
		err := r.Register(Descriptor{Name: "/list", ToolID: "b", ChatTypes: mainOnly})
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("alias colliding with canonical name", func(t *testing.T) {
		r := New(nil)
		if err := r.Register(Descriptor{Name: "/list", ToolID: "a", ChatTypes: mainOnly}); err != nil {
			t.Fatal(err)
		}
		err := r.Register(Descriptor{Name: "/roster", ToolID: "a", ChatTypes: mainOnly, Aliases: []string{"/list"}})
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Errorf("expected conflict, got %v", err)
		}
	})

	t.Run("registration after freeze", func(t *testing.T) {
		r := New(nil)
		r.Freeze()
		err := r.Register(Descriptor{Name: "/late", ToolID: "x", ChatTypes: mainOnly})
		if apperr.CodeOf(err) != apperr.CodeProgramming {
			t.Errorf("expected programming error, got %v", err)
		}
	})
}

func TestRegistry_ReadBeforeFreezePanics(t *testing.T) {
	r := New(nil)
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic reading an unfrozen registry")
		}
		err, ok := rec.(error)
		if !ok || apperr.CodeOf(err) != apperr.CodeProgramming {
			t.Errorf("panic value = %v, want programming error", rec)
		}
	}()
	r.Names()
}

func TestRegistry_Overlay(t *testing.T) {
	r := New(nil)
	if err := r.Register(Descriptor{
		Name: "/list", ToolID: "list_players", ChatTypes: mainOnly,
		ToolArgs: map[string]any{"filter": "active"},
	}); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(Descriptor{
		Name: "/list", ToolID: "list_players", ChatTypes: leaderOnly,
		Permission: models.PermissionLeadership,
		ToolArgs:   map[string]any{"filter": "all"},
	}); err != nil {
		t.Fatal(err)
	}
	r.Freeze()

	main, ok := r.GetForChat("/list", models.ChatTypeMain)
	if !ok {
		t.Fatal("/list missing in main")
	}
	leader, ok := r.GetForChat("/list", models.ChatTypeLeadership)
	if !ok {
		t.Fatal("/list missing in leadership")
	}
	if main == leader {
		t.Fatal("overlay did not produce distinct descriptors")
	}
	if main.ToolArgs["filter"] != "active" || leader.ToolArgs["filter"] != "all" {
		t.Errorf("overlay args wrong: main=%v leadership=%v", main.ToolArgs, leader.ToolArgs)
	}
	if _, ok := r.GetForChat("/list", models.ChatTypePrivate); ok {
		t.Error("/list resolved in private chat where it was never registered")
	}
}

func TestRegistry_AliasResolution(t *testing.T) {
	r := New(nil)
	if err := r.Register(Descriptor{
		Name: "/help", ToolID: "get_help", ChatTypes: everywhere, Aliases: []string{"/commands", "h"},
	}); err != nil {
		t.Fatal(err)
	}
	r.Freeze()

	for _, alias := range []string{"/commands", "/h", "/HELP"} {
		canonical, ok := r.Resolve(alias)
		if !ok || canonical != "/help" {
			t.Errorf("Resolve(%q) = %q, %v", alias, canonical, ok)
		}
	}
	if _, ok := r.Resolve("/nosuch"); ok {
		t.Error("unknown command resolved")
	}
}

func TestManifest_InitializedRegistry(t *testing.T) {
	r, err := NewInitialized(nil)
	if err != nil {
		t.Fatalf("NewInitialized: %v", err)
	}
	if !r.Initialized() {
		t.Fatal("registry not frozen")
	}

	expected := []string{
		"/start", "/help", "/register", "/myinfo", "/list", "/status",
		"/addplayer", "/approve", "/reject", "/remove", "/addmember",
		"/creatematch", "/matches", "/markattendance", "/attendance",
		"/available", "/unavailable", "/selectsquad", "/announce",
		"/invitelink", "/update", LinkContactCommand,
	}
	for _, name := range expected {
		if _, ok := r.Get(name); !ok {
			t.Errorf("manifest missing %s", name)
		}
	}

	t.Run("no duplicate (name, chat type) pairs", func(t *testing.T) {
		seen := make(map[string]bool)
		for _, ct := range []models.ChatType{models.ChatTypeMain, models.ChatTypeLeadership, models.ChatTypePrivate} {
			for _, d := range r.ListForChat(ct) {
				key := d.Name + "|" + string(ct)
				if seen[key] {
					t.Errorf("duplicate %s", key)
				}
				seen[key] = true
			}
		}
	})

	t.Run("leadership-scoped commands stay out of main", func(t *testing.T) {
		for _, name := range []string{"/approve", "/reject", "/remove", "/addplayer", "/announce", "/invitelink", "/selectsquad"} {
			if _, ok := r.GetForChat(name, models.ChatTypeMain); ok {
				t.Errorf("%s is available in the main chat", name)
			}
			if _, ok := r.GetForChat(name, models.ChatTypeLeadership); !ok {
				t.Errorf("%s is missing from the leadership chat", name)
			}
		}
	})

	t.Run("list overlay differs between chats", func(t *testing.T) {
		main, _ := r.GetForChat("/list", models.ChatTypeMain)
		leader, _ := r.GetForChat("/list", models.ChatTypeLeadership)
		if main == nil || leader == nil {
			t.Fatal("/list missing from a chat scope")
		}
		if main.ToolArgs["filter"] == leader.ToolArgs["filter"] {
			t.Error("/list overlay has identical args in both chats")
		}
	})
}

func TestRegistry_AvailableFor(t *testing.T) {
	r, err := NewInitialized(nil)
	if err != nil {
		t.Fatal(err)
	}

	t.Run("player in main does not see admin commands", func(t *testing.T) {
		cmds := r.AvailableFor(playerCtx(t, models.ChatTypeMain, false))
		for _, d := range cmds {
			if d.Permission == models.PermissionAdmin {
				t.Errorf("player sees admin command %s", d.Name)
			}
			if d.Internal {
				t.Errorf("internal command %s leaked into help", d.Name)
			}
		}
	})

	t.Run("admin in leadership sees approve", func(t *testing.T) {
		cmds := r.AvailableFor(playerCtx(t, models.ChatTypeLeadership, true))
		found := false
		for _, d := range cmds {
			if d.Name == "/approve" {
				found = true
			}
		}
		if !found {
			t.Error("/approve missing for an admin in leadership")
		}
	})
}
