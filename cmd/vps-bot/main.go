package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"vps-tracker/services"
	"vps-tracker/system"
)

// vps-bot waits for /start in Telegram and saves the chat id that
// vps-notify delivers renewal digests to.
func main() {
	token := os.Getenv("TG_TOKEN")
	if token == "" {
		log.Fatal("TG_TOKEN is not set in environment")
	}

	if err := system.InitLogger(envOr("VPS_LOG_DIR", "./logs")); err != nil {
		log.Printf("Warning: Could not initialize file logger: %v", err)
	}
	defer system.Close()

	tg := services.NewTelegramService(token)
	chats := services.NewChatFile(envOr("VPS_CHAT_FILE", "chat_id.json"))
	registrar := services.NewRegistrar(tg, chats)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	system.Info("Telegram registrar started. Waiting for /start ...")
	registrar.Run(ctx)
	system.Info("Stopping bot...")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
