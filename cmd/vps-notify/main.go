package main

import (
	"log"
	"os"
	"time"

	"vps-tracker/services"
	"vps-tracker/store"
)

// vps-notify is meant to run from cron or a systemd timer, typically once
// a day. Without a bot token or a registered chat it prints the digest to
// stdout and still exits 0.
func main() {
	s, err := store.Open(envOr("VPS_DB_PATH", "vps.db"))
	if err != nil {
		log.Fatal("Failed to open store:", err)
	}
	defer s.Close()

	tg := services.NewTelegramService(os.Getenv("TG_TOKEN"))
	chats := services.NewChatFile(envOr("VPS_CHAT_FILE", "chat_id.json"))

	notifier := services.NewRenewalNotifier(s, tg, chats)
	if err := notifier.Run(time.Now()); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
