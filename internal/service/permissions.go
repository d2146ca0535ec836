package service

import (
	"context"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// PermissionSnapshot is the caller's standing at the moment the router
// builds the request context. It is captured once per request and never
// refreshed mid-pipeline.
type PermissionSnapshot struct {
	IsPlayer     bool
	IsTeamMember bool
	IsAdmin      bool
	IsLeadership bool
}

// PermissionService resolves a caller's snapshot from the player and
// team-member records.
type PermissionService struct {
	players PlayerStore
	members MemberStore
	logger  *observability.Logger
}

// NewPermissionService builds a service over the given stores.
func NewPermissionService(players PlayerStore, members MemberStore, logger *observability.Logger) *PermissionService {
	return &PermissionService{
		players: players,
		members: members,
		logger:  logger.WithFields("service", "permissions"),
	}
}

// Snapshot looks the caller up in both collections. An unknown caller gets
// the zero snapshot, not an error; store failures still surface so the
// router can refuse rather than misclassify.
func (s *PermissionService) Snapshot(ctx context.Context, telegramID int64) (PermissionSnapshot, error) {
	var snap PermissionSnapshot

	p, err := s.players.ByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		snap.IsPlayer = p.Status == models.PlayerActive || p.Status == models.PlayerPending
	case apperr.CodeOf(err) != apperr.CodeNotFound:
		return PermissionSnapshot{}, err
	}

	m, err := s.members.ByTelegramID(ctx, telegramID)
	switch {
	case err == nil:
		if m.Status == models.MemberActive {
			snap.IsTeamMember = true
			snap.IsLeadership = true
			snap.IsAdmin = m.IsAdmin
		}
	case apperr.CodeOf(err) != apperr.CodeNotFound:
		return PermissionSnapshot{}, err
	}

	return snap, nil
}
