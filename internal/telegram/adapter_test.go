package telegram

import (
	"context"
	"testing"
	"time"

	tgmodels "github.com/go-telegram/bot/models"
)

func TestConfigValidate(t *testing.T) {
	t.Run("token required", func(t *testing.T) {
		cfg := Config{}
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for missing token")
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		cfg := Config{Token: "123:abc"}
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if cfg.RateLimit != 30 {
			t.Errorf("RateLimit = %v, want 30", cfg.RateLimit)
		}
		if cfg.RateBurst != 20 {
			t.Errorf("RateBurst = %v, want 20", cfg.RateBurst)
		}
		if cfg.Logger == nil {
			t.Error("Logger should default")
		}
	})
}

func TestConvertUpdate(t *testing.T) {
	base := func() *tgmodels.Update {
		return &tgmodels.Update{Message: &tgmodels.Message{
			ID:   7,
			Chat: tgmodels.Chat{ID: -100123},
			From: &tgmodels.User{ID: 42, Username: "jane", FirstName: "Jane", LastName: "Doe"},
			Text: "/help",
		}}
	}

	t.Run("text message", func(t *testing.T) {
		upd, ok := convertUpdate(base())
		if !ok {
			t.Fatal("expected conversion")
		}
		if upd.ChatID != -100123 || upd.TelegramID != 42 || upd.Text != "/help" {
			t.Errorf("got %+v", upd)
		}
		if upd.DisplayName != "Jane Doe" {
			t.Errorf("DisplayName = %q", upd.DisplayName)
		}
	})

	t.Run("contact share without text", func(t *testing.T) {
		u := base()
		u.Message.Text = ""
		u.Message.Contact = &tgmodels.Contact{PhoneNumber: "+447700900123", UserID: 42}
		upd, ok := convertUpdate(u)
		if !ok {
			t.Fatal("expected conversion")
		}
		if upd.Contact == nil || upd.Contact.PhoneNumber != "+447700900123" {
			t.Errorf("Contact = %+v", upd.Contact)
		}
	})

	t.Run("empty update dropped", func(t *testing.T) {
		u := base()
		u.Message.Text = ""
		if _, ok := convertUpdate(u); ok {
			t.Error("textless, contactless update should be dropped")
		}
	})

	t.Run("nil message dropped", func(t *testing.T) {
		if _, ok := convertUpdate(&tgmodels.Update{}); ok {
			t.Error("update without message should be dropped")
		}
	})
}

func TestStripMarkup(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"**bold** and `code`", "bold and code"},
		{"plain text", "plain text"},
		{"player_id stays", "player_id stays"},
		{"  # Header\n", "Header"},
	}
	for _, tt := range tests {
		if got := stripMarkup(tt.in); got != tt.want {
			t.Errorf("stripMarkup(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRateLimiterBurstThenBlock(t *testing.T) {
	l := newRateLimiter(1000, 2)

	if !l.allow() || !l.allow() {
		t.Fatal("burst capacity should allow two immediate sends")
	}
	if l.allow() {
		t.Error("third immediate send should be throttled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := l.wait(ctx); err != nil {
		t.Errorf("wait should succeed once a token refills: %v", err)
	}
}

func TestRateLimiterWaitCancelled(t *testing.T) {
	l := newRateLimiter(0.001, 1)
	l.allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := l.wait(ctx); err != context.Canceled {
		t.Errorf("wait = %v, want context.Canceled", err)
	}
}
