package adapter

import (
	"context"
	"time"
)

// InlineButton describes one button in an inline keyboard row.
// URL buttons open a link; Data buttons send callback data.
type InlineButton struct {
	Text string
	Data string
	URL  string
}

// BotAdapter is the outbound port to the messaging collaborator.
// All calls are bounded by ctx; failures are reported, not retried here.
type BotAdapter interface {
	SendMessage(ctx context.Context, tgID int64, text string) error
	SendButtons(ctx context.Context, tgID int64, text string, rows [][]InlineButton) error
	// AnswerCallback dismisses the loading spinner of a button press,
	// optionally showing a short toast text.
	AnswerCallback(ctx context.Context, callbackID, text string) error
	// CreateInviteLink mints a single-use, time-boxed channel invite.
	CreateInviteLink(ctx context.Context, ttl time.Duration, memberLimit int) (string, error)
	// RevokeAccess removes the subscriber from the channel. The subscriber
	// is unbanned afterwards so they can rejoin with a fresh invite.
	RevokeAccess(ctx context.Context, tgID int64) error
}
