package services

import (
	"context"
	"strings"
	"time"

	"vps-tracker/system"
)

const activationReply = "✅ Bot activated! Renewal notifications will arrive here."

// Registrar long-polls Telegram for the /start command and persists the
// chat id the renewal notifier should deliver to. It keeps only the last
// seen update id in memory; a restart re-reads pending updates, which is
// harmless since saving the same chat id twice changes nothing.
type Registrar struct {
	tg           *TelegramService
	chats        *ChatFile
	lastUpdateID int64
}

func NewRegistrar(tg *TelegramService, chats *ChatFile) *Registrar {
	return &Registrar{tg: tg, chats: chats}
}

// Poll performs one getUpdates round and handles any activation commands.
func (r *Registrar) Poll() error {
	offset := int64(0)
	if r.lastUpdateID > 0 {
		offset = r.lastUpdateID + 1
	}

	updates, err := r.tg.GetUpdates(offset, 30)
	if err != nil {
		return err
	}

	for _, u := range updates {
		r.lastUpdateID = u.UpdateID

		msg := u.Message
		if msg == nil {
			msg = u.EditedMessage
		}
		if msg == nil {
			continue
		}

		if strings.ToLower(strings.TrimSpace(msg.Text)) != "/start" {
			continue
		}

		if err := r.chats.Save(msg.Chat.ID); err != nil {
			system.Error("Failed to save chat id %d: %v", msg.Chat.ID, err)
			continue
		}
		if err := r.tg.SendMessage(msg.Chat.ID, activationReply); err != nil {
			system.Warn("Failed to confirm activation to chat %d: %v", msg.Chat.ID, err)
		}
		system.Info("Registered chat id %d for renewal notifications", msg.Chat.ID)
	}
	return nil
}

// Run polls until the context is cancelled. Poll errors are logged and
// followed by a short backoff so a Telegram outage never kills the loop.
func (r *Registrar) Run(ctx context.Context) {
	for {
		if err := r.Poll(); err != nil {
			system.Warn("Telegram poll failed: %v", err)
			if !sleepCtx(ctx, 3*time.Second) {
				return
			}
			continue
		}
		if !sleepCtx(ctx, time.Second) {
			return
		}
	}
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
