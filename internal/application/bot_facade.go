package application

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"telegram-vip-subscription/internal/domain"
	"telegram-vip-subscription/internal/domain/model"
	"telegram-vip-subscription/internal/domain/ports/adapter"
	"telegram-vip-subscription/internal/domain/ports/repository"
	"telegram-vip-subscription/internal/usecase"
)

// Callback data values. Exact matches first, then prefixes.
const (
	cbMenu     = "menu"
	cbActivate = "activate"
	cbStatus   = "status"
	cbInvite   = "invite"
	cbNewCode  = "newcode"
	cbDelMenu  = "delmenu"
	cbDelSub   = "delsub"

	cbDurPrefix     = "dur:"
	cbDurCustom     = "dur:custom"
	cbDelCodePrefix = "delcode:"
)

// BotFacade routes incoming Telegram updates to the use cases. It owns the
// conversation state machine: free text is only meaningful while a state
// flag says what input is expected next.
type BotFacade struct {
	codes   CodeService
	subs    SubscriptionService
	states  repository.StateRepository
	bot     adapter.BotAdapter
	auth    usecase.Authorizer
	limiter RateLimiter
	adminID int64
	log     *zerolog.Logger
}

func NewBotFacade(
	codes CodeService,
	subs SubscriptionService,
	states repository.StateRepository,
	bot adapter.BotAdapter,
	auth usecase.Authorizer,
	limiter RateLimiter,
	adminID int64,
	logger *zerolog.Logger,
) *BotFacade {
	l := logger.With().Str("component", "BotFacade").Logger()
	return &BotFacade{
		codes:   codes,
		subs:    subs,
		states:  states,
		bot:     bot,
		auth:    auth,
		limiter: limiter,
		adminID: adminID,
		log:     &l,
	}
}

// HandleUpdate dispatches one webhook update. Errors are for the caller's
// log only; the update is always considered handled.
func (f *BotFacade) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if update.CallbackQuery != nil {
		return f.handleCallback(ctx, update.CallbackQuery)
	}
	if update.Message != nil {
		return f.handleMessage(ctx, update.Message)
	}
	return nil
}

func (f *BotFacade) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	tgID := msg.From.ID
	text := strings.TrimSpace(msg.Text)

	if f.limiter != nil {
		allowed, err := f.limiter.Allow(ctx, fmt.Sprintf("rate_limit:%d:message", tgID), 20, time.Minute)
		if err != nil {
			f.log.Warn().Err(err).Msg("rate limit check failed")
		} else if !allowed {
			return f.bot.SendMessage(ctx, tgID, "Rate limit exceeded. Please try again later.")
		}
	}

	if text == "/start" {
		if err := f.states.Clear(ctx, tgID); err != nil {
			f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to clear state")
		}
		welcome := "✨ Welcome to the VIP channel bot!\n\n" +
			"Here you can:\n" +
			"✅ activate a VIP subscription\n" +
			"📌 check your subscription status\n" +
			"🧾 get a channel invite link\n\n" +
			"Choose an action below 👇"
		return f.sendMainMenu(ctx, tgID, welcome)
	}

	state, err := f.states.Get(ctx, tgID)
	if err != nil {
		f.log.Warn().Err(err).Int64("tg_id", tgID).Msg("failed to read state")
		state = model.StateIdle
	}

	switch state {
	case model.StateAwaitingCode:
		return f.redeemFlow(ctx, tgID, text)
	case model.StateAwaitingCustomDuration:
		return f.customDurationFlow(ctx, tgID, text)
	case model.StateAwaitingDeleteTarget:
		return f.deleteTargetFlow(ctx, tgID, text)
	default:
		return f.sendMainMenu(ctx, tgID, "Choose an action 👇")
	}
}

func (f *BotFacade) redeemFlow(ctx context.Context, tgID int64, text string) error {
	res, err := f.subs.Redeem(ctx, tgID, text)
	switch {
	case errors.Is(err, domain.ErrCodeNotFound):
		// keep the state so the subscriber can retry immediately
		return f.bot.SendMessage(ctx, tgID, "❌ That code is not valid. Send it again:")
	case errors.Is(err, domain.ErrCodeAlreadyUsed):
		_ = f.states.Clear(ctx, tgID)
		return f.bot.SendMessage(ctx, tgID, "❌ This code has already been used.")
	case err != nil:
		_ = f.states.Clear(ctx, tgID)
		f.log.Error().Err(err).Int64("tg_id", tgID).Msg("redemption failed")
		return f.bot.SendMessage(ctx, tgID, "Something went wrong. Please try again later.")
	}

	_ = f.states.Clear(ctx, tgID)
	verb := "activated"
	if res.Extended {
		verb = "extended"
	}
	return f.bot.SendMessage(ctx, tgID, fmt.Sprintf(
		"✅ Subscription %s!\n\n📆 Duration: <b>%d</b> days\n📌 Expires: <b>%s</b>",
		verb, res.Days, formatExpiry(res.ExpiresAt),
	))
}

func (f *BotFacade) customDurationFlow(ctx context.Context, tgID int64, text string) error {
	days, err := strconv.Atoi(text)
	if err != nil || days <= 0 {
		return f.bot.SendMessage(ctx, tgID, "❌ Send just the number of days, e.g. 45")
	}
	return f.createCodeReply(ctx, tgID, days)
}

func (f *BotFacade) deleteTargetFlow(ctx context.Context, tgID int64, text string) error {
	target, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return f.bot.SendMessage(ctx, tgID, "❌ Send the numeric subscriber ID.")
	}
	if err := f.subs.DeleteSubscription(ctx, tgID, target); err != nil {
		_ = f.states.Clear(ctx, tgID)
		if errors.Is(err, domain.ErrUnauthorized) {
			return f.bot.SendMessage(ctx, tgID, "⛔ Access denied.")
		}
		return f.bot.SendMessage(ctx, tgID, "Something went wrong. Please try again later.")
	}
	_ = f.states.Clear(ctx, tgID)
	return f.bot.SendMessage(ctx, tgID, fmt.Sprintf("✅ Subscription for %d deleted.", target))
}

type cbHandler func(ctx context.Context, tgID int64, data string) error

// Exact-match callbacks
func (f *BotFacade) cbRoutes() map[string]cbHandler {
	return map[string]cbHandler{
		cbMenu: func(ctx context.Context, id int64, _ string) error {
			_ = f.states.Clear(ctx, id)
			return f.sendMainMenu(ctx, id, "Main menu:")
		},
		cbActivate: func(ctx context.Context, id int64, _ string) error {
			if err := f.states.Set(ctx, id, model.StateAwaitingCode); err != nil {
				return err
			}
			return f.bot.SendMessage(ctx, id, "🔑 Send your subscription code:")
		},
		cbStatus: func(ctx context.Context, id int64, _ string) error {
			sub, err := f.subs.Status(ctx, id)
			if errors.Is(err, domain.ErrNoSubscription) {
				return f.bot.SendMessage(ctx, id, "❌ You have no active subscription.")
			}
			if err != nil {
				return f.bot.SendMessage(ctx, id, "Something went wrong. Please try again later.")
			}
			return f.bot.SendMessage(ctx, id, fmt.Sprintf(
				"✅ Subscription active.\n⏳ <b>%d</b> days left\n📌 Expires: <b>%s</b>",
				sub.RemainingDays(time.Now()), formatExpiry(sub.ExpiresAt),
			))
		},
		cbInvite: func(ctx context.Context, id int64, _ string) error {
			if _, err := f.subs.Status(ctx, id); err != nil {
				return f.bot.SendMessage(ctx, id, "❌ Activate your VIP subscription first.")
			}
			link, err := f.bot.CreateInviteLink(ctx, time.Hour, 1)
			if err != nil {
				f.log.Warn().Err(err).Int64("tg_id", id).Msg("invite link creation failed")
				return f.bot.SendMessage(ctx, id, "❌ The bot is not an admin of the channel or cannot create invite links.")
			}
			return f.bot.SendMessage(ctx, id, fmt.Sprintf(
				"✅ Your single-use invite link:\n\n%s\n\n⏳ Valid for 1 hour.", link,
			))
		},
		cbNewCode: func(ctx context.Context, id int64, _ string) error {
			if !f.requireAdmin(ctx, id) {
				return nil
			}
			rows := [][]adapter.InlineButton{
				{
					{Text: "30 days", Data: cbDurPrefix + "30"},
					{Text: "60 days", Data: cbDurPrefix + "60"},
					{Text: "90 days", Data: cbDurPrefix + "90"},
				},
				{{Text: "Custom duration", Data: cbDurCustom}},
				{{Text: "◀️ Menu", Data: cbMenu}},
			}
			return f.bot.SendButtons(ctx, id, "Pick the subscription duration:", rows)
		},
		cbDelMenu: func(ctx context.Context, id int64, _ string) error {
			if !f.requireAdmin(ctx, id) {
				return nil
			}
			return f.sendDeleteMenu(ctx, id)
		},
		cbDelSub: func(ctx context.Context, id int64, _ string) error {
			if !f.requireAdmin(ctx, id) {
				return nil
			}
			if err := f.states.Set(ctx, id, model.StateAwaitingDeleteTarget); err != nil {
				return err
			}
			return f.bot.SendMessage(ctx, id, "Send the subscriber ID whose subscription should be deleted:")
		},
	}
}

// Prefix-match callbacks
func (f *BotFacade) cbPrefixRoutes() []struct {
	Prefix string
	Fn     cbHandler
} {
	return []struct {
		Prefix string
		Fn     cbHandler
	}{
		{
			Prefix: cbDurPrefix,
			Fn: func(ctx context.Context, id int64, data string) error {
				if !f.requireAdmin(ctx, id) {
					return nil
				}
				arg := strings.TrimPrefix(data, cbDurPrefix)
				if arg == "custom" {
					if err := f.states.Set(ctx, id, model.StateAwaitingCustomDuration); err != nil {
						return err
					}
					return f.bot.SendMessage(ctx, id, "Send the number of days, e.g. 45")
				}
				days, err := strconv.Atoi(arg)
				if err != nil {
					return f.bot.SendMessage(ctx, id, "❌ Unknown duration.")
				}
				return f.createCodeReply(ctx, id, days)
			},
		},
		{
			Prefix: cbDelCodePrefix,
			Fn: func(ctx context.Context, id int64, data string) error {
				if !f.requireAdmin(ctx, id) {
					return nil
				}
				token := strings.TrimPrefix(data, cbDelCodePrefix)
				if err := f.codes.Delete(ctx, id, token); err != nil {
					return f.bot.SendMessage(ctx, id, "Something went wrong. Please try again later.")
				}
				return f.bot.SendMessage(ctx, id, fmt.Sprintf("✅ Deleted:\n<code>%s</code>", token))
			},
		},
	}
}

func (f *BotFacade) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) error {
	if query.From == nil {
		return errors.New("invalid callback query")
	}
	tgID := query.From.ID

	// Stop the telegram spinner regardless of outcome.
	defer func() { _ = f.bot.AnswerCallback(ctx, query.ID, "") }()

	data := strings.TrimSpace(query.Data)

	if f.limiter != nil {
		if allowed, err := f.limiter.Allow(ctx, fmt.Sprintf("rate_limit:%d:cb", tgID), 30, time.Minute); err == nil && !allowed {
			return f.bot.SendMessage(ctx, tgID, "Rate limit exceeded. Please try again later.")
		}
	}

	if fn, ok := f.cbRoutes()[data]; ok {
		return fn(ctx, tgID, data)
	}
	for _, pr := range f.cbPrefixRoutes() {
		if strings.HasPrefix(data, pr.Prefix) {
			return pr.Fn(ctx, tgID, data)
		}
	}
	return errors.New("unknown callback data")
}

func (f *BotFacade) createCodeReply(ctx context.Context, tgID int64, days int) error {
	code, err := f.codes.Create(ctx, tgID, days)
	switch {
	case errors.Is(err, domain.ErrUnauthorized):
		_ = f.states.Clear(ctx, tgID)
		return f.bot.SendMessage(ctx, tgID, "⛔ Access denied.")
	case errors.Is(err, domain.ErrInvalidDuration):
		return f.bot.SendMessage(ctx, tgID, fmt.Sprintf(
			"❌ Duration must be between %d and %d days.", model.MinCodeDays, model.MaxCodeDays,
		))
	case err != nil:
		_ = f.states.Clear(ctx, tgID)
		return f.bot.SendMessage(ctx, tgID, "Something went wrong. Please try again later.")
	}
	_ = f.states.Clear(ctx, tgID)
	return f.bot.SendMessage(ctx, tgID, fmt.Sprintf(
		"✅ Code created:\n\n<code>%s</code>\n📆 %d days", code.Code, code.Days,
	))
}

func (f *BotFacade) sendDeleteMenu(ctx context.Context, tgID int64) error {
	codes, err := f.codes.ListUnconsumed(ctx, tgID)
	if err != nil {
		return f.bot.SendMessage(ctx, tgID, "Something went wrong. Please try again later.")
	}

	rows := make([][]adapter.InlineButton, 0, len(codes)+2)
	for _, c := range codes {
		rows = append(rows, []adapter.InlineButton{{
			Text: fmt.Sprintf("%s (%dd)", c.Code, c.Days),
			Data: cbDelCodePrefix + c.Code,
		}})
	}
	rows = append(rows, []adapter.InlineButton{{Text: "🗑 Delete a subscription", Data: cbDelSub}})
	rows = append(rows, []adapter.InlineButton{{Text: "◀️ Menu", Data: cbMenu}})

	text := "Pick a code to delete:"
	if len(codes) == 0 {
		text = "No unused codes to delete."
	}
	return f.bot.SendButtons(ctx, tgID, text, rows)
}

func (f *BotFacade) requireAdmin(ctx context.Context, tgID int64) bool {
	if !f.auth.IsPrivileged(tgID) {
		_ = f.bot.SendMessage(ctx, tgID, "⛔ Access denied.")
		return false
	}
	return true
}

func (f *BotFacade) sendMainMenu(ctx context.Context, tgID int64, intro string) error {
	rows := [][]adapter.InlineButton{
		{{Text: "✅ Activate subscription", Data: cbActivate}},
		{{Text: "📌 My status", Data: cbStatus}},
		{{Text: "🧾 Channel invite", Data: cbInvite}},
		{{Text: "👨‍💻 Contact admin", URL: fmt.Sprintf("tg://user?id=%d", f.adminID)}},
	}
	if f.auth.IsPrivileged(tgID) {
		rows = append(rows,
			[]adapter.InlineButton{{Text: "🛠 New code", Data: cbNewCode}},
			[]adapter.InlineButton{{Text: "🗑 Delete…", Data: cbDelMenu}},
		)
	}
	if strings.TrimSpace(intro) == "" {
		intro = "Choose an action:"
	}
	return f.bot.SendButtons(ctx, tgID, intro, rows)
}

func formatExpiry(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04 UTC")
}
