package telegram

import "context"

// Update is the transport-neutral shape of one inbound Telegram message.
// The adapter fills it from the wire type so the router never touches
// Telegram's API structs.
type Update struct {
	MessageID   int
	ChatID      int64
	TelegramID  int64
	Username    string
	DisplayName string
	Text        string
	// Contact is set when the user shared a contact card instead of (or
	// alongside) text.
	Contact *Contact
}

// Contact is a shared contact card.
type Contact struct {
	PhoneNumber string
	UserID      int64
}

// Response is what the handler wants sent back for one update.
type Response struct {
	Text string
	// RequestContact attaches a one-time reply keyboard asking the user
	// to share their contact.
	RequestContact bool
}

// Handler processes one inbound update and produces the reply. The
// router implements it; the adapter calls it on a goroutine per update.
type Handler interface {
	Handle(ctx context.Context, u Update) Response
}
