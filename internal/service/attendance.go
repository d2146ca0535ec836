package service

import (
	"context"
	"fmt"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// AttendanceStore is the slice of the attendance repository the service
// uses.
type AttendanceStore interface {
	Upsert(ctx context.Context, a models.Attendance) error
	ByID(ctx context.Context, matchID, playerID string) (models.Attendance, error)
	ForMatch(ctx context.Context, matchID string) ([]models.Attendance, error)
	ForPlayer(ctx context.Context, playerID string) ([]models.Attendance, error)
}

// AttendanceService records availability before matches and attendance
// after them.
type AttendanceService struct {
	teamID     string
	attendance AttendanceStore
	matches    MatchStore
	players    PlayerStore
	logger     *observability.Logger
}

// NewAttendanceService builds a service over the given stores.
func NewAttendanceService(teamID string, attendance AttendanceStore, matches MatchStore, players PlayerStore, logger *observability.Logger) *AttendanceService {
	return &AttendanceService{
		teamID:     teamID,
		attendance: attendance,
		matches:    matches,
		players:    players,
		logger:     logger.WithFields("service", "attendance", "team_id", teamID),
	}
}

// Mark records a status for any player, on a leader's behalf. Re-marking
// overwrites the previous status.
func (s *AttendanceService) Mark(ctx context.Context, reqCtx models.RequestContext, matchID, playerID string, status models.AttendanceStatus) (models.Attendance, error) {
	if !status.IsValid() {
		return models.Attendance{}, apperr.Validation(fmt.Sprintf("unknown attendance status %q", status), nil)
	}
	m, err := s.matches.ByID(ctx, matchID)
	if err != nil {
		return models.Attendance{}, err
	}
	p, err := s.players.ByID(ctx, playerID)
	if err != nil {
		return models.Attendance{}, err
	}

	a := models.Attendance{
		TeamID:     s.teamID,
		MatchID:    m.ID,
		PlayerID:   p.ID,
		Status:     status,
		RecordedBy: fmt.Sprintf("%d", reqCtx.TelegramID),
	}
	if err := s.attendance.Upsert(ctx, a); err != nil {
		return models.Attendance{}, err
	}
	a.ID = models.AttendanceID(s.teamID, m.ID, p.ID)
	s.logger.Info(ctx, "attendance marked", "match_id", m.ID, "player_id", p.ID, "status", status)
	return a, nil
}

// Availability records the caller's own yes/no/maybe for a match.
func (s *AttendanceService) Availability(ctx context.Context, reqCtx models.RequestContext, matchID string, status models.AttendanceStatus) (models.Attendance, error) {
	switch status {
	case models.AttendanceYes, models.AttendanceNo, models.AttendanceMaybe:
	default:
		return models.Attendance{}, apperr.Validation("availability must be yes, no or maybe", nil)
	}
	p, err := s.players.ByTelegramID(ctx, reqCtx.TelegramID)
	if err != nil {
		return models.Attendance{}, err
	}
	return s.Mark(ctx, reqCtx, matchID, p.ID, status)
}

// ForMatch returns every record for a match.
func (s *AttendanceService) ForMatch(ctx context.Context, matchID string) ([]models.Attendance, error) {
	m, err := s.matches.ByID(ctx, matchID)
	if err != nil {
		return nil, err
	}
	return s.attendance.ForMatch(ctx, m.ID)
}

// ForPlayer returns a player's record history.
func (s *AttendanceService) ForPlayer(ctx context.Context, playerID string) ([]models.Attendance, error) {
	return s.attendance.ForPlayer(ctx, playerID)
}
