package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"vps-tracker/handlers"
	"vps-tracker/services"
	"vps-tracker/store"
	"vps-tracker/system"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/template/html/v2"
)

func main() {
	if err := system.InitLogger(envOr("VPS_LOG_DIR", "./logs")); err != nil {
		log.Printf("Warning: Could not initialize file logger: %v", err)
	}
	defer system.Close()

	system.Info("VPS tracker starting...")

	dbPath := envOr("VPS_DB_PATH", "vps.db")
	s, err := store.Open(dbPath)
	if err != nil {
		system.Error("Failed to open store: %v", err)
		log.Fatal("Failed to open store:", err)
	}
	defer s.Close()
	system.Info("Database connected: %s", dbPath)

	// VPS_GEOIP_DB optionally points at a GeoLite2 City mmdb; the remote
	// providers remain as fallback either way.
	resolver := services.NewResolver(os.Getenv("VPS_GEOIP_DB"))
	defer resolver.Close()

	h := handlers.NewHandler(s, resolver)

	engine := html.New(envOr("VPS_TEMPLATES_DIR", "./templates"), ".html")
	app := fiber.New(fiber.Config{
		Views:       engine,
		ViewsLayout: "layout",
	})

	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "${time} | ${status} | ${latency} | ${ip} | ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     os.Stdout,
	}))

	app.Get("/", h.ListVPS)
	app.Get("/add", h.AddVPS)
	app.Post("/add", h.AddVPS)
	app.Get("/edit/:id", h.EditVPS)
	app.Post("/edit/:id", h.EditVPS)
	app.Get("/delete/:id", h.DeleteVPS)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		system.Info("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	addr := envOr("VPS_LISTEN_ADDR", ":5000")
	system.Info("Server starting on %s", addr)
	if err := app.Listen(addr); err != nil {
		log.Fatal(err)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
