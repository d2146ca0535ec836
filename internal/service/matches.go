package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// MatchStore is the slice of the match repository the service uses.
type MatchStore interface {
	Insert(ctx context.Context, m models.Match) error
	ByID(ctx context.Context, id string) (models.Match, error)
	List(ctx context.Context, statuses ...models.MatchStatus) ([]models.Match, error)
	SetSquad(ctx context.Context, id string, squad []string) error
	SetStatus(ctx context.Context, id string, status models.MatchStatus) error
	Count(ctx context.Context) (int64, error)
}

// MatchService manages one team's fixtures and squad selection.
type MatchService struct {
	teamID  string
	matches MatchStore
	players PlayerStore
	logger  *observability.Logger
}

// NewMatchService builds a service over the given stores. The player store
// is needed to validate squad selections.
func NewMatchService(teamID string, matches MatchStore, players PlayerStore, logger *observability.Logger) *MatchService {
	return &MatchService{
		teamID:  teamID,
		matches: matches,
		players: players,
		logger:  logger.WithFields("service", "matches", "team_id", teamID),
	}
}

// Create schedules a fixture. Match IDs are M plus a sequence number.
func (s *MatchService) Create(ctx context.Context, reqCtx models.RequestContext, opponent string, date time.Time, location, competition string) (models.Match, error) {
	opponent = strings.TrimSpace(opponent)
	if opponent == "" {
		return models.Match{}, apperr.Validation("an opponent is required", nil)
	}
	if date.IsZero() {
		return models.Match{}, apperr.Validation("a match date is required", nil)
	}
	if date.Before(time.Now()) {
		return models.Match{}, apperr.Validation("the match date is in the past", nil)
	}

	n, err := s.matches.Count(ctx)
	if err != nil {
		return models.Match{}, err
	}

	now := time.Now().UTC()
	m := models.Match{
		ID:          fmt.Sprintf("M%d", n+1),
		TeamID:      s.teamID,
		Opponent:    opponent,
		Date:        date.UTC(),
		Location:    strings.TrimSpace(location),
		Competition: strings.TrimSpace(competition),
		Status:      models.MatchScheduled,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.matches.Insert(ctx, m); err != nil {
		return models.Match{}, err
	}
	s.logger.Info(ctx, "match created", "match_id", m.ID, "opponent", opponent, "by", reqCtx.TelegramID)
	return m, nil
}

// List returns scheduled fixtures, soonest first.
func (s *MatchService) List(ctx context.Context) ([]models.Match, error) {
	return s.matches.List(ctx, models.MatchScheduled)
}

// ListAll returns every fixture regardless of status.
func (s *MatchService) ListAll(ctx context.Context) ([]models.Match, error) {
	return s.matches.List(ctx)
}

// ByID returns a match by ID.
func (s *MatchService) ByID(ctx context.Context, id string) (models.Match, error) {
	return s.matches.ByID(ctx, strings.ToUpper(strings.TrimSpace(id)))
}

// SelectSquad records the squad for a match. Every selected player must
// exist and be active.
func (s *MatchService) SelectSquad(ctx context.Context, reqCtx models.RequestContext, matchID string, playerIDs []string) (models.Match, error) {
	if len(playerIDs) == 0 {
		return models.Match{}, apperr.Validation("select at least one player", nil)
	}
	m, err := s.ByID(ctx, matchID)
	if err != nil {
		return models.Match{}, err
	}
	if m.Status != models.MatchScheduled {
		return models.Match{}, apperr.Conflict(fmt.Sprintf("Match %s is %s, the squad is closed.", m.ID, m.Status), nil)
	}

	squad := make([]string, 0, len(playerIDs))
	seen := make(map[string]bool, len(playerIDs))
	for _, id := range playerIDs {
		id = strings.ToUpper(strings.TrimSpace(id))
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		p, err := s.players.ByID(ctx, id)
		if err != nil {
			return models.Match{}, err
		}
		if p.Status != models.PlayerActive {
			return models.Match{}, apperr.Validation(fmt.Sprintf("%s (%s) is not an active player.", p.Name, p.ID), nil)
		}
		squad = append(squad, id)
	}

	if err := s.matches.SetSquad(ctx, m.ID, squad); err != nil {
		return models.Match{}, err
	}
	m.Squad = squad
	s.logger.Info(ctx, "squad selected", "match_id", m.ID, "size", len(squad), "by", reqCtx.TelegramID)
	return m, nil
}
