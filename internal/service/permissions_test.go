package service

import (
	"context"
	"errors"
	"testing"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

func TestPermissionSnapshot(t *testing.T) {
	player := activePlayer("JS1", "John Smith", 10)
	pendingPlayer := activePlayer("PP1", "Pat Pending", 11)
	pendingPlayer.Status = models.PlayerPending
	removedPlayer := activePlayer("RR1", "Rob Removed", 12)
	removedPlayer.Status = models.PlayerRemoved

	member := models.TeamMember{ID: "MSC1", TeamID: "t1", Name: "Sarah Cole", TelegramID: 20, Status: models.MemberActive}
	admin := models.TeamMember{ID: "MAD1", TeamID: "t1", Name: "Ann Dodd", TelegramID: 21, IsAdmin: true, Status: models.MemberActive}
	removedMember := models.TeamMember{ID: "MRM1", TeamID: "t1", Name: "Rex More", TelegramID: 22, Status: models.MemberRemoved}

	svc := NewPermissionService(
		newFakePlayerStore(player, pendingPlayer, removedPlayer),
		newFakeMemberStore(member, admin, removedMember),
		testLogger(),
	)

	tests := []struct {
		name       string
		telegramID int64
		want       PermissionSnapshot
	}{
		{"active player", 10, PermissionSnapshot{IsPlayer: true}},
		{"pending player counts as player", 11, PermissionSnapshot{IsPlayer: true}},
		{"removed player is nobody", 12, PermissionSnapshot{}},
		{"member gets leadership", 20, PermissionSnapshot{IsTeamMember: true, IsLeadership: true}},
		{"admin member", 21, PermissionSnapshot{IsTeamMember: true, IsLeadership: true, IsAdmin: true}},
		{"removed member is nobody", 22, PermissionSnapshot{}},
		{"stranger", 99, PermissionSnapshot{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Snapshot(context.Background(), tt.telegramID)
			if err != nil {
				t.Fatalf("Snapshot: %v", err)
			}
			if got != tt.want {
				t.Errorf("Snapshot = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPermissionSnapshotStoreFailure(t *testing.T) {
	players := newFakePlayerStore()
	players.err = apperr.Unavailable("db down", errors.New("socket closed"))
	svc := NewPermissionService(players, newFakeMemberStore(), testLogger())

	_, err := svc.Snapshot(context.Background(), 10)
	if apperr.CodeOf(err) != apperr.CodeUnavailable {
		t.Fatalf("code = %v, want SERVICE_UNAVAILABLE", apperr.CodeOf(err))
	}
}

func TestTeamServiceChatTypeFor(t *testing.T) {
	team := models.Team{ID: "t1", Name: "Sunday FC", MainChatID: "-100", LeadershipChatID: "-200"}
	svc := NewTeamService(nil, testLogger())

	tests := []struct {
		chatID string
		want   models.ChatType
	}{
		{"-100", models.ChatTypeMain},
		{"-200", models.ChatTypeLeadership},
		{"12345", models.ChatTypePrivate},
	}
	for _, tt := range tests {
		if got := svc.ChatTypeFor(team, tt.chatID); got != tt.want {
			t.Errorf("ChatTypeFor(%q) = %q, want %q", tt.chatID, got, tt.want)
		}
	}
}
