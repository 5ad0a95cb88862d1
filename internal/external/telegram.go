package external

import (
	"fmt"
	"log/slog"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type TelegramConfig struct {
	Token  string
	ChatID int64
}

func (c TelegramConfig) Enabled() bool {
	return c.Token != "" && c.ChatID != 0
}

// TelegramNotifier posts announcements to the operators' chat
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegramNotifier(cfg TelegramConfig) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}

	slog.Info("Telegram bot authorized", "username", bot.Self.UserName, "chat_id", cfg.ChatID)
	return &TelegramNotifier{bot: bot, chatID: cfg.ChatID}, nil
}

func (tn *TelegramNotifier) Notify(text string) error {
	msg := tgbotapi.NewMessage(tn.chatID, text)
	if _, err := tn.bot.Send(msg); err != nil {
		return fmt.Errorf("failed to send telegram message: %w", err)
	}
	return nil
}
