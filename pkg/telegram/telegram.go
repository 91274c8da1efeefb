package telegram

import (
	"context"
	"fmt"

	"trading-journal/config"
	"trading-journal/pkg/logger"

	"golang.org/x/time/rate"
	"gopkg.in/telebot.v3"
)

// Notifier pushes short journal events to a chat.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type TelegramNotifier struct {
	log           *logger.Logger
	bot           *telebot.Bot
	chatID        int64
	globalLimiter *rate.Limiter
}

// NewNotifier returns a Telegram notifier, or a no-op one when Telegram is disabled.
func NewNotifier(cfg config.TelegramConfig, log *logger.Logger) (Notifier, error) {
	if !cfg.Enabled {
		return NopNotifier{}, nil
	}
	return newTelegramNotifier(cfg, log, "")
}

func newTelegramNotifier(cfg config.TelegramConfig, log *logger.Logger, apiURL string) (*TelegramNotifier, error) {
	if cfg.BotToken == "" || cfg.ChatID == 0 {
		return nil, fmt.Errorf("telegram enabled but bot_token or chat_id is missing")
	}

	// Offline skips the getMe round trip; the bot only sends.
	bot, err := telebot.NewBot(telebot.Settings{
		URL:     apiURL,
		Token:   cfg.BotToken,
		Offline: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	perSecond := cfg.MaxGlobalRequestPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}

	return &TelegramNotifier{
		log:           log,
		bot:           bot,
		chatID:        cfg.ChatID,
		globalLimiter: rate.NewLimiter(rate.Limit(perSecond), perSecond),
	}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, message string) error {
	if err := t.globalLimiter.Wait(ctx); err != nil {
		t.log.ErrorContext(ctx, "Failed to wait for global rate limit", logger.ErrorField(err))
		return err
	}
	if _, err := t.bot.Send(telebot.ChatID(t.chatID), message, telebot.ModeMarkdown); err != nil {
		t.log.ErrorContext(ctx, "Failed to send telegram message", logger.ErrorField(err))
		return err
	}
	return nil
}

type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string) error {
	return nil
}
