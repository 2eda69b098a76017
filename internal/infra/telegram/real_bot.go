package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/config"
	"telegram-vip-subscription/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.BotAdapter = (*RealBotAdapter)(nil)

// RealBotAdapter implements adapter.BotAdapter on top of tgbotapi.
// One adapter serves exactly one bot token and one managed channel.
type RealBotAdapter struct {
	bot       *tgbotapi.BotAPI
	channelID int64
	log       *zerolog.Logger
}

func NewRealBotAdapter(cfg *config.BotConfig, logger *zerolog.Logger) (*RealBotAdapter, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram: init bot api: %w", err)
	}
	l := logger.With().Str("component", "TelegramBot").Logger()
	l.Info().Str("username", bot.Self.UserName).Msg("bot authorized")
	return &RealBotAdapter{bot: bot, channelID: cfg.ChannelID, log: &l}, nil
}

// RegisterWebhook points Telegram at our webhook endpoint. The secret is
// embedded in the URL path, so no extra header validation is needed.
func (r *RealBotAdapter) RegisterWebhook(webhookURL string) error {
	wh, err := tgbotapi.NewWebhook(webhookURL)
	if err != nil {
		return fmt.Errorf("telegram: build webhook config: %w", err)
	}
	if _, err := r.bot.Request(wh); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	r.log.Info().Msg("webhook registered")
	return nil
}

func (r *RealBotAdapter) SendMessage(ctx context.Context, tgID int64, text string) error {
	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	_, err := r.bot.Send(msg)
	if err != nil {
		return fmt.Errorf("telegram: send message to %d: %w", tgID, err)
	}
	return nil
}

func (r *RealBotAdapter) SendButtons(ctx context.Context, tgID int64, text string, rows [][]adapter.InlineButton) error {
	keyboard := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		btns := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			if b.URL != "" {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				btns = append(btns, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		keyboard = append(keyboard, btns)
	}

	msg := tgbotapi.NewMessage(tgID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(keyboard...)
	if _, err := r.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: send buttons to %d: %w", tgID, err)
	}
	return nil
}

func (r *RealBotAdapter) AnswerCallback(ctx context.Context, callbackID, text string) error {
	cb := tgbotapi.NewCallback(callbackID, text)
	if _, err := r.bot.Request(cb); err != nil {
		return fmt.Errorf("telegram: answer callback: %w", err)
	}
	return nil
}

// CreateInviteLink mints a fresh invite to the managed channel, limited to
// memberLimit joins and expiring after ttl.
func (r *RealBotAdapter) CreateInviteLink(ctx context.Context, ttl time.Duration, memberLimit int) (string, error) {
	cfg := tgbotapi.CreateChatInviteLinkConfig{
		ChatConfig:  tgbotapi.ChatConfig{ChatID: r.channelID},
		ExpireDate:  int(time.Now().Add(ttl).Unix()),
		MemberLimit: memberLimit,
	}
	resp, err := r.bot.Request(cfg)
	if err != nil {
		return "", fmt.Errorf("telegram: create invite link: %w", err)
	}

	var link tgbotapi.ChatInviteLink
	if err := json.Unmarshal(resp.Result, &link); err != nil {
		return "", fmt.Errorf("telegram: decode invite link: %w", err)
	}
	return link.InviteLink, nil
}

// RevokeAccess kicks the subscriber out of the channel and immediately
// lifts the ban so a future subscription can let them back in.
func (r *RealBotAdapter) RevokeAccess(ctx context.Context, tgID int64) error {
	ban := tgbotapi.BanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: r.channelID,
			UserID: tgID,
		},
	}
	if _, err := r.bot.Request(ban); err != nil {
		return fmt.Errorf("telegram: ban member %d: %w", tgID, err)
	}

	unban := tgbotapi.UnbanChatMemberConfig{
		ChatMemberConfig: tgbotapi.ChatMemberConfig{
			ChatID: r.channelID,
			UserID: tgID,
		},
		OnlyIfBanned: true,
	}
	if _, err := r.bot.Request(unban); err != nil {
		return fmt.Errorf("telegram: unban member %d: %w", tgID, err)
	}
	return nil
}
