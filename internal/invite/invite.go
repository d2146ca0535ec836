// Package invite mints and verifies invite-link tokens. An invite is a
// short-lived HS256 JWT naming the team and the chat the holder may join;
// the jti makes each link unique so a processed one can be remembered and
// refused on reuse.
package invite

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

// DefaultExpiry bounds invite validity when no expiry is configured.
const DefaultExpiry = 72 * time.Hour

// Claims is the invite token payload.
type Claims struct {
	TeamID   string `json:"team_id"`
	ChatType string `json:"chat_type"`
	jwt.RegisteredClaims
}

// Service signs and verifies invite tokens.
type Service struct {
	secret []byte
	expiry time.Duration
}

// NewService builds an invite signer. The secret must already have passed
// config validation.
func NewService(secret string, expiry time.Duration) *Service {
	if expiry <= 0 {
		expiry = DefaultExpiry
	}
	return &Service{secret: []byte(secret), expiry: expiry}
}

// Mint issues a signed invite for a team chat.
func (s *Service) Mint(teamID string, chatType models.ChatType) (string, error) {
	if strings.TrimSpace(teamID) == "" {
		return "", apperr.Validation("team id is required", nil)
	}
	switch chatType {
	case models.ChatTypeMain, models.ChatTypeLeadership:
	default:
		return "", apperr.Validation(fmt.Sprintf("invites cannot target %q chats", chatType), nil)
	}

	now := time.Now()
	claims := Claims{
		TeamID:   teamID,
		ChatType: string(chatType),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   teamID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperr.Unavailable("could not sign invite", err)
	}
	return signed, nil
}

// Verify parses a token and returns its claims. Expired, malformed, or
// foreign-signed tokens all surface as Validation errors so the reply layer
// can phrase them for the user.
func (s *Service) Verify(token string) (Claims, error) {
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return Claims{}, apperr.Validation("This invite link is invalid or has expired.", err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return Claims{}, apperr.Validation("This invite link is invalid or has expired.", nil)
	}
	if claims.TeamID == "" || !models.ChatType(claims.ChatType).IsValid() {
		return Claims{}, apperr.Validation("This invite link is invalid or has expired.", nil)
	}
	return *claims, nil
}

// LinkURL renders the deep link a user taps to redeem a token.
func LinkURL(botUsername, token string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", strings.TrimPrefix(botUsername, "@"), token)
}
