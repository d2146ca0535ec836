package tools

import (
	"testing"

	"github.com/kickai-football/kickai/pkg/models"
)

func TestClassifyID(t *testing.T) {
	tests := []struct {
		id       string
		wantType Type
		wantRole models.AgentRole // a role that must appear in the default access map
	}{
		{"register_player", TypePlayerMgmt, models.RolePlayerCoordinator},
		{"approve_player", TypePlayerMgmt, models.RoleTeamAdministrator},
		{"add_team_member", TypeTeamMgmt, models.RoleTeamAdministrator},
		{"promote_member", TypeTeamMgmt, models.RoleTeamAdministrator},
		{"get_help", TypeHelp, models.RoleHelpAssistant},
		{"list_commands", TypeHelp, models.RoleMessageProcessor},
		{"create_match", TypeMatchMgmt, models.RoleSquadSelector},
		{"select_squad", TypeMatchMgmt, models.RoleSquadSelector},
		{"mark_attendance", TypeAttendance, models.RolePlayerCoordinator},
		{"mark_availability", TypeAttendance, models.RoleSquadSelector},
		{"send_announcement", TypeCommunication, models.RoleTeamAdministrator},
		{"generate_invite_link", TypeSystem, models.RoleTeamAdministrator},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			gotType, access := ClassifyID(tt.id)
			if gotType != tt.wantType {
				t.Errorf("type = %q, want %q", gotType, tt.wantType)
			}
			if _, ok := access[tt.wantRole]; !ok {
				t.Errorf("default access control missing role %q: %v", tt.wantRole, access)
			}
		})
	}

	t.Run("unmatched ids are open utilities", func(t *testing.T) {
		gotType, access := ClassifyID("frobnicate")
		if gotType != TypeUtility {
			t.Errorf("type = %q, want utility", gotType)
		}
		if len(access) != 0 {
			t.Errorf("expected open access, got %v", access)
		}
	})
}

func TestClassifyID_ExplicitMetadataWins(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{
		ID:      "register_player",
		Type:    TypeSystem, // explicit, overrides the player_management default
		Enabled: true,
		Handler: okHandler("x"),
	})
	d, _ := r.Get("register_player")
	if d.Type != TypeSystem {
		t.Errorf("explicit type was overridden: %q", d.Type)
	}
	if len(d.AccessControl) != 0 {
		t.Errorf("explicit (empty) access control was overridden: %v", d.AccessControl)
	}
}

func TestClassifyID_AppliedOnRegistration(t *testing.T) {
	r := NewRegistry(nil, nil)
	mustRegister(t, r, Descriptor{ID: "approve_player", Enabled: true, Handler: okHandler("x")})
	d, _ := r.Get("approve_player")
	if d.Type != TypePlayerMgmt {
		t.Errorf("type = %q, want player_management", d.Type)
	}
	if !r.ValidateAccess("approve_player", models.RoleTeamAdministrator, models.EntityPlayer) {
		t.Error("derived access control does not admit the team administrator")
	}
	if r.ValidateAccess("approve_player", models.RoleHelpAssistant, models.EntityPlayer) {
		t.Error("derived access control admits an unrelated role")
	}
}
