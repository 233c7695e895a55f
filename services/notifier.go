package services

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"vps-tracker/models"
	"vps-tracker/store"
	"vps-tracker/system"
)

// renewalWindowDays is how far ahead the notifier looks. Overdue renewals
// have no lower bound; they stay in every digest until acted on.
const renewalWindowDays = 7

// MessageSender is the delivery side of the notifier. TelegramService
// implements it.
type MessageSender interface {
	IsEnabled() bool
	SendMessage(chatID int64, text string) error
}

// RenewalNotifier builds and delivers the upcoming-renewals digest. It is
// invoked from an external schedule (cron, systemd timer) and shares only
// the durable store with the web process.
type RenewalNotifier struct {
	store  *store.VPSStore
	sender MessageSender
	chats  *ChatFile
	out    io.Writer
}

func NewRenewalNotifier(s *store.VPSStore, sender MessageSender, chats *ChatFile) *RenewalNotifier {
	return &RenewalNotifier{
		store:  s,
		sender: sender,
		chats:  chats,
		out:    os.Stdout,
	}
}

// Run selects records renewing within the window (overdue included),
// formats the digest and delivers it. With no matching records it does
// nothing at all. Without a registered chat or a configured token the
// digest goes to stdout instead; that is the designed fallback.
func (n *RenewalNotifier) Run(now time.Time) error {
	today := dateOnly(now.UTC())
	limit := today.AddDate(0, 0, renewalWindowDays)

	records, err := n.store.ListDueBy(limit)
	if err != nil {
		return fmt.Errorf("failed to query upcoming renewals: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	digest := FormatDigest(records)

	var chatID int64
	registered := false
	if n.chats != nil {
		chatID, registered = n.chats.Load()
	}

	if registered && n.sender != nil && n.sender.IsEnabled() {
		if err := n.sender.SendMessage(chatID, digest); err != nil {
			// not retried, next scheduled run covers it
			system.Warn("Renewal digest delivery failed: %v", err)
		}
		return nil
	}

	fmt.Fprintln(n.out, digest)
	return nil
}

// FormatDigest renders the plain-text renewal digest: a header plus one
// line per record, soonest renewal first (store order).
func FormatDigest(records []models.VPS) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, "⚠️ VPS renewals approaching:")
	for _, v := range records {
		rd := ""
		if v.RenewalDate != nil {
			rd = v.RenewalDate.Format("2006-01-02")
		}
		lines = append(lines, fmt.Sprintf("- %s (%s) — %s", v.Name, v.Provider, rd))
	}
	return strings.Join(lines, "\n")
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
