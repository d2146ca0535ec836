package service

import (
	"context"
	"testing"
	"time"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/pkg/models"
)

// fakeMatchStore is an in-memory MatchStore keyed by match ID.
type fakeMatchStore struct {
	matches map[string]models.Match
}

func newFakeMatchStore(matches ...models.Match) *fakeMatchStore {
	s := &fakeMatchStore{matches: make(map[string]models.Match)}
	for _, m := range matches {
		s.matches[m.ID] = m
	}
	return s
}

func (s *fakeMatchStore) Insert(_ context.Context, m models.Match) error {
	if _, ok := s.matches[m.ID]; ok {
		return apperr.Conflict("match "+m.ID+" already exists", nil)
	}
	s.matches[m.ID] = m
	return nil
}

func (s *fakeMatchStore) ByID(_ context.Context, id string) (models.Match, error) {
	m, ok := s.matches[id]
	if !ok {
		return models.Match{}, apperr.NotFound("no match "+id, nil)
	}
	return m, nil
}

func (s *fakeMatchStore) List(_ context.Context, statuses ...models.MatchStatus) ([]models.Match, error) {
	var out []models.Match
	for _, m := range s.matches {
		if len(statuses) == 0 {
			out = append(out, m)
			continue
		}
		for _, st := range statuses {
			if m.Status == st {
				out = append(out, m)
				break
			}
		}
	}
	return out, nil
}

func (s *fakeMatchStore) SetSquad(_ context.Context, id string, squad []string) error {
	m, ok := s.matches[id]
	if !ok {
		return apperr.NotFound("no match "+id, nil)
	}
	m.Squad = squad
	s.matches[id] = m
	return nil
}

func (s *fakeMatchStore) SetStatus(_ context.Context, id string, status models.MatchStatus) error {
	m, ok := s.matches[id]
	if !ok {
		return apperr.NotFound("no match "+id, nil)
	}
	m.Status = status
	s.matches[id] = m
	return nil
}

func (s *fakeMatchStore) Count(_ context.Context) (int64, error) {
	return int64(len(s.matches)), nil
}

func activePlayer(id, name string, telegramID int64) models.Player {
	return models.Player{ID: id, TeamID: "t1", Name: name, TelegramID: telegramID, Status: models.PlayerActive}
}

func TestMatchServiceCreate(t *testing.T) {
	future := time.Now().Add(48 * time.Hour)

	t.Run("sequential ids", func(t *testing.T) {
		store := newFakeMatchStore(models.Match{ID: "M1", TeamID: "t1", Opponent: "Rovers", Status: models.MatchScheduled})
		svc := NewMatchService("t1", store, newFakePlayerStore(), testLogger())

		m, err := svc.Create(context.Background(), callerCtx(t, 1), "United", future, "Home", "League")
		if err != nil {
			t.Fatalf("Create: %v", err)
		}
		if m.ID != "M2" {
			t.Errorf("ID = %q, want M2", m.ID)
		}
		if m.Status != models.MatchScheduled {
			t.Errorf("Status = %q", m.Status)
		}
	})

	t.Run("past date rejected", func(t *testing.T) {
		svc := NewMatchService("t1", newFakeMatchStore(), newFakePlayerStore(), testLogger())
		_, err := svc.Create(context.Background(), callerCtx(t, 1), "United", time.Now().Add(-time.Hour), "", "")
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("code = %v, want VALIDATION_ERROR", apperr.CodeOf(err))
		}
	})

	t.Run("missing opponent rejected", func(t *testing.T) {
		svc := NewMatchService("t1", newFakeMatchStore(), newFakePlayerStore(), testLogger())
		_, err := svc.Create(context.Background(), callerCtx(t, 1), " ", future, "", "")
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("code = %v, want VALIDATION_ERROR", apperr.CodeOf(err))
		}
	})
}

func TestMatchServiceSelectSquad(t *testing.T) {
	scheduled := models.Match{ID: "M1", TeamID: "t1", Opponent: "Rovers", Status: models.MatchScheduled}

	t.Run("valid squad with dedupe", func(t *testing.T) {
		store := newFakeMatchStore(scheduled)
		players := newFakePlayerStore(activePlayer("JS1", "John Smith", 1), activePlayer("AB1", "Alice Brown", 2))
		svc := NewMatchService("t1", store, players, testLogger())

		m, err := svc.SelectSquad(context.Background(), callerCtx(t, 1), "m1", []string{"js1", "AB1", "JS1"})
		if err != nil {
			t.Fatalf("SelectSquad: %v", err)
		}
		if len(m.Squad) != 2 || m.Squad[0] != "JS1" || m.Squad[1] != "AB1" {
			t.Errorf("Squad = %v", m.Squad)
		}
	})

	t.Run("inactive player rejected", func(t *testing.T) {
		pending := activePlayer("JS1", "John Smith", 1)
		pending.Status = models.PlayerPending
		svc := NewMatchService("t1", newFakeMatchStore(scheduled), newFakePlayerStore(pending), testLogger())
		_, err := svc.SelectSquad(context.Background(), callerCtx(t, 1), "M1", []string{"JS1"})
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("code = %v, want VALIDATION_ERROR", apperr.CodeOf(err))
		}
	})

	t.Run("completed match closed", func(t *testing.T) {
		done := scheduled
		done.Status = models.MatchCompleted
		svc := NewMatchService("t1", newFakeMatchStore(done), newFakePlayerStore(activePlayer("JS1", "John Smith", 1)), testLogger())
		_, err := svc.SelectSquad(context.Background(), callerCtx(t, 1), "M1", []string{"JS1"})
		if apperr.CodeOf(err) != apperr.CodeConflict {
			t.Fatalf("code = %v, want CONFLICT_ERROR", apperr.CodeOf(err))
		}
	})

	t.Run("empty selection rejected", func(t *testing.T) {
		svc := NewMatchService("t1", newFakeMatchStore(scheduled), newFakePlayerStore(), testLogger())
		_, err := svc.SelectSquad(context.Background(), callerCtx(t, 1), "M1", nil)
		if apperr.CodeOf(err) != apperr.CodeValidation {
			t.Fatalf("code = %v, want VALIDATION_ERROR", apperr.CodeOf(err))
		}
	})
}
