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

// MemberStore is the slice of the team-member repository the service uses.
type MemberStore interface {
	Insert(ctx context.Context, m models.TeamMember) error
	ByID(ctx context.Context, id string) (models.TeamMember, error)
	ByTelegramID(ctx context.Context, telegramID int64) (models.TeamMember, error)
	List(ctx context.Context, statuses ...models.MemberStatus) ([]models.TeamMember, error)
	Update(ctx context.Context, m models.TeamMember) error
	CountByIDPrefix(ctx context.Context, prefix string) (int64, error)
}

// TeamMemberService manages non-playing staff records for one team.
type TeamMemberService struct {
	teamID  string
	members MemberStore
	logger  *observability.Logger
}

// NewTeamMemberService builds a service over the given store.
func NewTeamMemberService(teamID string, members MemberStore, logger *observability.Logger) *TeamMemberService {
	return &TeamMemberService{
		teamID:  teamID,
		members: members,
		logger:  logger.WithFields("service", "members", "team_id", teamID),
	}
}

// Add creates an active team member. Member IDs use an M prefix on top of
// the initials so they never collide with player IDs.
func (s *TeamMemberService) Add(ctx context.Context, reqCtx models.RequestContext, name, phone, role string) (models.TeamMember, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.TeamMember{}, apperr.Validation("a name is required", nil)
	}
	normalized := ""
	if strings.TrimSpace(phone) != "" {
		var err error
		normalized, err = NormalizePhone(phone)
		if err != nil {
			return models.TeamMember{}, err
		}
	}

	prefix := "M" + initials(name)
	n, err := s.members.CountByIDPrefix(ctx, prefix)
	if err != nil {
		return models.TeamMember{}, err
	}

	now := time.Now().UTC()
	m := models.TeamMember{
		ID:        fmt.Sprintf("%s%d", prefix, n+1),
		TeamID:    s.teamID,
		Name:      name,
		Phone:     normalized,
		Role:      strings.TrimSpace(role),
		Status:    models.MemberActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.members.Insert(ctx, m); err != nil {
		return models.TeamMember{}, err
	}
	s.logger.Info(ctx, "team member added", "member_id", m.ID, "by", reqCtx.TelegramID)
	return m, nil
}

// ByTelegramID returns the caller's own member record.
func (s *TeamMemberService) ByTelegramID(ctx context.Context, telegramID int64) (models.TeamMember, error) {
	return s.members.ByTelegramID(ctx, telegramID)
}

// List returns the team's active members.
func (s *TeamMemberService) List(ctx context.Context) ([]models.TeamMember, error) {
	return s.members.List(ctx, models.MemberActive)
}

// Promote grants a member admin rights.
func (s *TeamMemberService) Promote(ctx context.Context, reqCtx models.RequestContext, memberID string) (models.TeamMember, error) {
	m, err := s.members.ByID(ctx, strings.ToUpper(strings.TrimSpace(memberID)))
	if err != nil {
		return models.TeamMember{}, err
	}
	if m.IsAdmin {
		return models.TeamMember{}, apperr.Conflict(fmt.Sprintf("%s is already an admin.", m.Name), nil)
	}
	m.IsAdmin = true
	if err := s.members.Update(ctx, m); err != nil {
		return models.TeamMember{}, err
	}
	s.logger.Info(ctx, "member promoted", "member_id", m.ID, "by", reqCtx.TelegramID)
	return m, nil
}
