// Package service holds the stateless domain services the tools call into.
// Services sit between the tool layer and the repositories: they own
// business rules (ID generation, phone normalization, status transitions)
// and leave document plumbing to internal/store. Construct them through the
// Factory so per-team instances are cached.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/nyaruka/phonenumbers"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/observability"
	"github.com/kickai-football/kickai/pkg/models"
)

// DefaultPhoneRegion is assumed when a phone number has no country prefix.
const DefaultPhoneRegion = "GB"

// PlayerStore is the slice of the player repository the service uses.
type PlayerStore interface {
	Insert(ctx context.Context, p models.Player) error
	ByID(ctx context.Context, id string) (models.Player, error)
	ByTelegramID(ctx context.Context, telegramID int64) (models.Player, error)
	ByPhone(ctx context.Context, phone string) (models.Player, error)
	List(ctx context.Context, statuses ...models.PlayerStatus) ([]models.Player, error)
	Update(ctx context.Context, p models.Player) error
	SetStatus(ctx context.Context, id string, status models.PlayerStatus) error
	CountByIDPrefix(ctx context.Context, prefix string) (int64, error)
}

// PlayerService owns the player registration lifecycle for one team.
type PlayerService struct {
	teamID  string
	players PlayerStore
	logger  *observability.Logger
}

// NewPlayerService builds a service over the given store.
func NewPlayerService(teamID string, players PlayerStore, logger *observability.Logger) *PlayerService {
	return &PlayerService{
		teamID:  teamID,
		players: players,
		logger:  logger.WithFields("service", "players", "team_id", teamID),
	}
}

// Register creates a pending player for the caller. One Telegram account
// maps to at most one player per team.
func (s *PlayerService) Register(ctx context.Context, reqCtx models.RequestContext, name, phone, position string) (models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Player{}, apperr.Validation("a name is required to register", nil)
	}

	if existing, err := s.players.ByTelegramID(ctx, reqCtx.TelegramID); err == nil {
		return models.Player{}, apperr.Conflict(
			fmt.Sprintf("You are already registered as %s (%s).", existing.Name, existing.ID), nil)
	} else if apperr.CodeOf(err) != apperr.CodeNotFound {
		return models.Player{}, err
	}

	normalized := ""
	if strings.TrimSpace(phone) != "" {
		var err error
		normalized, err = NormalizePhone(phone)
		if err != nil {
			return models.Player{}, err
		}
	}

	id, err := s.nextID(ctx, name)
	if err != nil {
		return models.Player{}, err
	}

	now := time.Now().UTC()
	p := models.Player{
		ID:         id,
		TeamID:     s.teamID,
		TelegramID: reqCtx.TelegramID,
		Name:       name,
		Phone:      normalized,
		Position:   strings.TrimSpace(position),
		Status:     models.PlayerPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.players.Insert(ctx, p); err != nil {
		return models.Player{}, err
	}
	s.logger.Info(ctx, "player registered", "player_id", p.ID, "telegram_id", reqCtx.TelegramID)
	return p, nil
}

// Approve activates a pending player.
func (s *PlayerService) Approve(ctx context.Context, reqCtx models.RequestContext, playerID string) (models.Player, error) {
	return s.transition(ctx, reqCtx, playerID, models.PlayerActive, "approved")
}

// Reject declines a pending registration.
func (s *PlayerService) Reject(ctx context.Context, reqCtx models.RequestContext, playerID string) (models.Player, error) {
	return s.transition(ctx, reqCtx, playerID, models.PlayerRejected, "rejected")
}

// Remove retires a player from the squad. The record stays for history.
func (s *PlayerService) Remove(ctx context.Context, reqCtx models.RequestContext, playerID string) (models.Player, error) {
	return s.transition(ctx, reqCtx, playerID, models.PlayerRemoved, "removed")
}

func (s *PlayerService) transition(ctx context.Context, reqCtx models.RequestContext, playerID string, to models.PlayerStatus, verb string) (models.Player, error) {
	p, err := s.players.ByID(ctx, strings.ToUpper(strings.TrimSpace(playerID)))
	if err != nil {
		return models.Player{}, err
	}
	if p.Status == to {
		return models.Player{}, apperr.Conflict(fmt.Sprintf("%s is already %s.", p.Name, verb), nil)
	}
	if err := s.players.SetStatus(ctx, p.ID, to); err != nil {
		return models.Player{}, err
	}
	p.Status = to
	s.logger.Info(ctx, "player "+verb, "player_id", p.ID, "by", reqCtx.TelegramID)
	return p, nil
}

// AddDirect creates an already-active player on an admin's behalf, without
// a Telegram identity. The player links their account later via an invite.
func (s *PlayerService) AddDirect(ctx context.Context, reqCtx models.RequestContext, name, phone string) (models.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Player{}, apperr.Validation("a name is required", nil)
	}
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return models.Player{}, err
	}
	if _, err := s.players.ByPhone(ctx, normalized); err == nil {
		return models.Player{}, apperr.Conflict("A player with that phone number already exists.", nil)
	} else if apperr.CodeOf(err) != apperr.CodeNotFound {
		return models.Player{}, err
	}

	id, err := s.nextID(ctx, name)
	if err != nil {
		return models.Player{}, err
	}
	now := time.Now().UTC()
	p := models.Player{
		ID:        id,
		TeamID:    s.teamID,
		Name:      name,
		Phone:     normalized,
		Status:    models.PlayerActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.players.Insert(ctx, p); err != nil {
		return models.Player{}, err
	}
	s.logger.Info(ctx, "player added", "player_id", p.ID, "by", reqCtx.TelegramID)
	return p, nil
}

// ListActive returns approved players.
func (s *PlayerService) ListActive(ctx context.Context) ([]models.Player, error) {
	return s.players.List(ctx, models.PlayerActive)
}

// ListAll returns every player regardless of status.
func (s *PlayerService) ListAll(ctx context.Context) ([]models.Player, error) {
	return s.players.List(ctx)
}

// ByTelegramID returns the caller's own player record.
func (s *PlayerService) ByTelegramID(ctx context.Context, telegramID int64) (models.Player, error) {
	return s.players.ByTelegramID(ctx, telegramID)
}

// ByID returns a player by ID.
func (s *PlayerService) ByID(ctx context.Context, id string) (models.Player, error) {
	return s.players.ByID(ctx, strings.ToUpper(strings.TrimSpace(id)))
}

// ByPhone returns a player by phone number, normalized first.
func (s *PlayerService) ByPhone(ctx context.Context, phone string) (models.Player, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return models.Player{}, err
	}
	return s.players.ByPhone(ctx, normalized)
}

// LinkContact attaches the caller's Telegram identity to the player record
// matching the shared phone number. This completes admin-created records.
func (s *PlayerService) LinkContact(ctx context.Context, reqCtx models.RequestContext, phone string) (models.Player, error) {
	normalized, err := NormalizePhone(phone)
	if err != nil {
		return models.Player{}, err
	}
	p, err := s.players.ByPhone(ctx, normalized)
	if err != nil {
		return models.Player{}, err
	}
	if p.TelegramID != 0 && p.TelegramID != reqCtx.TelegramID {
		return models.Player{}, apperr.Conflict("That player record is already linked to another account.", nil)
	}
	p.TelegramID = reqCtx.TelegramID
	if err := s.players.Update(ctx, p); err != nil {
		return models.Player{}, err
	}
	s.logger.Info(ctx, "contact linked", "player_id", p.ID, "telegram_id", reqCtx.TelegramID)
	return p, nil
}

// UpdateInfo changes the caller's own phone or position. Empty fields keep
// their current value.
func (s *PlayerService) UpdateInfo(ctx context.Context, reqCtx models.RequestContext, phone, position string) (models.Player, error) {
	p, err := s.players.ByTelegramID(ctx, reqCtx.TelegramID)
	if err != nil {
		return models.Player{}, err
	}
	changed := false
	if strings.TrimSpace(phone) != "" {
		normalized, err := NormalizePhone(phone)
		if err != nil {
			return models.Player{}, err
		}
		p.Phone = normalized
		changed = true
	}
	if strings.TrimSpace(position) != "" {
		p.Position = strings.TrimSpace(position)
		changed = true
	}
	if !changed {
		return models.Player{}, apperr.Validation("Nothing to update. Provide a phone number or a position.", nil)
	}
	if err := s.players.Update(ctx, p); err != nil {
		return models.Player{}, err
	}
	return p, nil
}

// nextID derives the player ID from the name's initials plus a per-team
// sequence number, e.g. JS1 for the first John Smith.
func (s *PlayerService) nextID(ctx context.Context, name string) (string, error) {
	prefix := initials(name)
	if prefix == "" {
		return "", apperr.Validation("name must contain at least one letter", nil)
	}
	n, err := s.players.CountByIDPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%d", prefix, n+1), nil
}

// initials upper-cases the first letter of each name part. Single-word
// names double their initial so the prefix never collapses to one letter.
func initials(name string) string {
	var b strings.Builder
	for _, part := range strings.Fields(name) {
		for _, r := range part {
			if unicode.IsLetter(r) {
				b.WriteRune(unicode.ToUpper(r))
				break
			}
		}
	}
	out := b.String()
	if len(out) == 1 {
		out += out
	}
	return out
}

// NormalizePhone parses a phone number and renders it in E.164. Numbers
// without a country prefix are assumed to be in DefaultPhoneRegion.
func NormalizePhone(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", apperr.Validation("a phone number is required", nil)
	}
	num, err := phonenumbers.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return "", apperr.Validation(fmt.Sprintf("%q does not look like a phone number", raw), err)
	}
	if !phonenumbers.IsValidNumber(num) {
		return "", apperr.Validation(fmt.Sprintf("%q is not a valid phone number", raw), errors.New("failed validation"))
	}
	return phonenumbers.Format(num, phonenumbers.E164), nil
}
