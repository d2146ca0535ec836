package service

import (
	"context"

	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// TeamStore is the slice of the tenant repository the service uses.
type TeamStore interface {
	ByID(ctx context.Context, id string) (models.Team, error)
	ByChatID(ctx context.Context, chatID string) (models.Team, error)
	List(ctx context.Context) ([]models.Team, error)
	Upsert(ctx context.Context, t models.Team) error
}

// TeamService resolves tenant records and classifies chats.
type TeamService struct {
	teams  TeamStore
	logger *observability.Logger
}

// NewTeamService builds a service over the given store.
func NewTeamService(teams TeamStore, logger *observability.Logger) *TeamService {
	return &TeamService{teams: teams, logger: logger.WithFields("service", "teams")}
}

// ByID returns a team record.
func (s *TeamService) ByID(ctx context.Context, id string) (models.Team, error) {
	return s.teams.ByID(ctx, id)
}

// ByChatID returns the team owning a chat.
func (s *TeamService) ByChatID(ctx context.Context, chatID string) (models.Team, error) {
	return s.teams.ByChatID(ctx, chatID)
}

// List returns every tenant record.
func (s *TeamService) List(ctx context.Context) ([]models.Team, error) {
	return s.teams.List(ctx)
}

// Upsert creates or updates a tenant record.
func (s *TeamService) Upsert(ctx context.Context, t models.Team) error {
	return s.teams.Upsert(ctx, t)
}

// ChatTypeFor classifies a chat ID against a team's registered chats. Any
// chat the team does not own is treated as a private conversation.
func (s *TeamService) ChatTypeFor(t models.Team, chatID string) models.ChatType {
	switch chatID {
	case t.MainChatID:
		return models.ChatTypeMain
	case t.LeadershipChatID:
		return models.ChatTypeLeadership
	default:
		return models.ChatTypePrivate
	}
}
