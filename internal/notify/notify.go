// Package notify delivers purchase receipts to vendors.
package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/telebot.v3"

	"github.com/abhisek/tapcart/internal/money"
	"github.com/abhisek/tapcart/internal/store"
)

// ReceiptSender delivers a receipt to a vendor chat.
type ReceiptSender interface {
	SendReceipt(ctx context.Context, chatID int64, tx *store.Transaction) error
}

// Nop drops receipts.
type Nop struct{}

func (Nop) SendReceipt(context.Context, int64, *store.Transaction) error { return nil }

// Telegram sends receipts through a Telegram bot.
type Telegram struct {
	bot   *telebot.Bot
	money *money.Formatter
	log   logrus.FieldLogger
}

// TelegramOption customizes a Telegram sender.
type TelegramOption func(*telebot.Settings)

// WithAPIURL points the bot at another Bot API endpoint.
func WithAPIURL(url string) TelegramOption {
	return func(s *telebot.Settings) { s.URL = url }
}

// NewTelegram creates a sender for token. The bot never polls; it only sends.
func NewTelegram(token string, fm *money.Formatter, log logrus.FieldLogger, opts ...TelegramOption) (*Telegram, error) {
	settings := telebot.Settings{
		Token:   token,
		Offline: true,
		OnError: func(err error, _ telebot.Context) {
			log.WithError(err).Error("telegram")
		},
	}
	for _, o := range opts {
		o(&settings)
	}
	bot, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return &Telegram{bot: bot, money: fm, log: log.WithField("component", "telegram")}, nil
}

// SendReceipt posts the receipt to chatID.
func (t *Telegram) SendReceipt(ctx context.Context, chatID int64, tx *store.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.bot.Send(telebot.ChatID(chatID), FormatReceipt(tx, t.money))
	if err != nil {
		return fmt.Errorf("send receipt %s: %w", tx.ID, err)
	}
	t.log.WithFields(logrus.Fields{"transaction": tx.ID, "chat": chatID}).Debug("receipt sent")
	return nil
}

// FormatReceipt renders a plain-text receipt.
func FormatReceipt(tx *store.Transaction, fm *money.Formatter) string {
	var b strings.Builder
	fmt.Fprintf(&b, "New order at %s\n", tx.VendorName)
	fmt.Fprintf(&b, "Order %s\n", shortID(tx.ID))
	fmt.Fprintf(&b, "%s\n\n", tx.Date.Local().Format("Jan 2, 2006 15:04"))
	for _, it := range tx.Items {
		fmt.Fprintf(&b, "%d x %s  %s\n", it.Quantity, it.Name, fm.Format(it.PriceCents*int64(it.Quantity)))
	}
	fmt.Fprintf(&b, "\nTotal %s", fm.Format(tx.TotalCents))
	return b.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
