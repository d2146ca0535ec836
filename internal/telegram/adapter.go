// Package telegram adapts the go-telegram/bot long-polling client to the
// router: inbound updates are converted to a transport-neutral shape and
// handled one goroutine each, outbound replies are rate limited and sent
// as plain text.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"

	"github.com/kickai-football/kickai/internal/apperr"
	"github.com/kickai-football/kickai/internal/cache"
	"github.com/kickai-football/kickai/internal/observability"
)

const (
	// dedupeWindow bounds how long redelivered updates are recognized.
	dedupeWindow = 10 * time.Minute

	dedupeMaxSize = 4096
)

// Config holds the adapter settings.
type Config struct {
	// Token is the bot token from @BotFather.
	Token string

	// RateLimit is the outbound send rate in messages per second.
	RateLimit float64

	// RateBurst is the outbound burst capacity.
	RateBurst int

	Logger *observability.Logger
}

// Validate checks the configuration and applies defaults.
func (c *Config) Validate() error {
	if c.Token == "" {
		return apperr.Validation("telegram token is required", nil)
	}
	if c.RateLimit == 0 {
		// Telegram throttles bots around 30 messages per second.
		c.RateLimit = 30
	}
	if c.RateBurst == 0 {
		c.RateBurst = 20
	}
	if c.Logger == nil {
		c.Logger = observability.NewLogger(observability.LogConfig{Level: "error"})
	}
	return nil
}

// Adapter is the long-polling Telegram transport.
type Adapter struct {
	cfg     Config
	handler Handler
	limiter *rateLimiter
	seen    *cache.Dedupe
	logger  *observability.Logger
	metrics *observability.Metrics

	mu     sync.Mutex
	bot    *bot.Bot
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAdapter validates the config and builds an adapter. The bot
// connection is established by Start.
func NewAdapter(cfg Config, handler Handler, metrics *observability.Metrics) (*Adapter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if handler == nil {
		return nil, apperr.Programming("telegram adapter needs a handler", nil)
	}
	return &Adapter{
		cfg:     cfg,
		handler: handler,
		limiter: newRateLimiter(cfg.RateLimit, cfg.RateBurst),
		seen:    cache.NewDedupe(cache.Options{TTL: dedupeWindow, MaxSize: dedupeMaxSize}),
		logger:  cfg.Logger.WithFields("component", "telegram"),
		metrics: metrics,
	}, nil
}

// Start connects the bot and begins long polling. It returns once the
// poll loop is running; the loop itself stops on context cancellation or
// Stop.
func (a *Adapter) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)

	b, err := bot.New(a.cfg.Token, bot.WithDefaultHandler(a.handleUpdate), bot.WithSkipGetMe())
	if err != nil {
		cancel()
		return apperr.Unavailable("could not connect to Telegram", err)
	}

	a.mu.Lock()
	a.bot = b
	a.cancel = cancel
	a.mu.Unlock()

	if _, err := b.GetMe(ctx); err != nil {
		cancel()
		return apperr.Unavailable("Telegram rejected the bot token", err)
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.logger.Info(ctx, "telegram long polling started", "rate_limit", a.cfg.RateLimit)
		b.Start(ctx)
		a.logger.Info(context.Background(), "telegram long polling stopped")
	}()
	return nil
}

// Stop halts polling and waits for in-flight updates, bounded by ctx.
func (a *Adapter) Stop(ctx context.Context) error {
	a.mu.Lock()
	if a.cancel != nil {
		a.cancel()
	}
	a.mu.Unlock()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return apperr.Unavailable("telegram adapter did not stop in time", ctx.Err())
	}
}

// handleUpdate converts the wire update and hands it to the router on
// its own goroutine, then delivers the reply.
func (a *Adapter) handleUpdate(ctx context.Context, _ *bot.Bot, u *tgmodels.Update) {
	upd, ok := convertUpdate(u)
	if !ok {
		return
	}
	// Long polling redelivers updates after reconnects; handling one twice
	// would repeat writes and replies.
	if a.seen.Seen(cache.UpdateKey(upd.ChatID, upd.MessageID)) {
		a.logger.Debug(ctx, "duplicate update dropped", "chat_id", upd.ChatID, "message_id", upd.MessageID)
		return
	}

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		defer func() {
			if rec := recover(); rec != nil {
				a.logger.Error(ctx, "update handler panicked", "panic", fmt.Sprint(rec), "chat_id", upd.ChatID)
				a.metrics.RecordError("telegram", "handler_panic")
			}
		}()

		resp := a.handler.Handle(ctx, upd)
		if resp.Text == "" {
			return
		}
		if err := a.send(ctx, upd.ChatID, resp); err != nil {
			a.logger.Error(ctx, "reply delivery failed", "error", err, "chat_id", upd.ChatID)
			a.metrics.RecordError("telegram", "send_failed")
		}
	}()
}

// convertUpdate maps the wire type to the transport-neutral Update.
// Updates without a message or sender are ignored.
func convertUpdate(u *tgmodels.Update) (Update, bool) {
	if u == nil || u.Message == nil || u.Message.From == nil {
		return Update{}, false
	}
	msg := u.Message

	upd := Update{
		MessageID:   msg.ID,
		ChatID:      msg.Chat.ID,
		TelegramID:  msg.From.ID,
		Username:    msg.From.Username,
		DisplayName: strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName),
		Text:        msg.Text,
	}
	if msg.Contact != nil {
		upd.Contact = &Contact{
			PhoneNumber: msg.Contact.PhoneNumber,
			UserID:      msg.Contact.UserID,
		}
	}
	if upd.Text == "" && upd.Contact == nil {
		return Update{}, false
	}
	return upd, true
}

// send delivers one reply, rate limited, optionally with the
// contact-request keyboard.
func (a *Adapter) send(ctx context.Context, chatID int64, resp Response) error {
	if err := a.limiter.wait(ctx); err != nil {
		return err
	}

	a.mu.Lock()
	b := a.bot
	a.mu.Unlock()
	if b == nil {
		return apperr.Programming("telegram adapter used before Start", nil)
	}

	params := &bot.SendMessageParams{
		ChatID: chatID,
		Text:   stripMarkup(resp.Text),
	}
	if resp.RequestContact {
		params.ReplyMarkup = &tgmodels.ReplyKeyboardMarkup{
			Keyboard: [][]tgmodels.KeyboardButton{{
				{Text: "📱 Share my contact", RequestContact: true},
			}},
			OneTimeKeyboard: true,
			ResizeKeyboard:  true,
		}
	}

	_, err := b.SendMessage(ctx, params)
	if err != nil {
		return apperr.Unavailable("telegram send failed", err)
	}
	return nil
}

// SendMessage satisfies the announcement sender used by the builtin
// tools: chat IDs arrive as strings from team records.
func (a *Adapter) SendMessage(ctx context.Context, chatID, text string) error {
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return apperr.Validation(fmt.Sprintf("chat id %q is not numeric", chatID), err)
	}
	return a.send(ctx, id, Response{Text: text})
}

// markupReplacer strips the emphasis markers LLM output tends to carry.
// Replies go out as plain text, so leftover markers would be visible
// noise. Single underscores survive because they appear in identifiers.
var markupReplacer = strings.NewReplacer(
	"```", "",
	"**", "",
	"__", "",
	"`", "",
	"*", "",
	"#", "",
)

func stripMarkup(text string) string {
	return strings.TrimSpace(markupReplacer.Replace(text))
}

// DefaultStopTimeout bounds the graceful shutdown wait used by the CLI.
const DefaultStopTimeout = 10 * time.Second
