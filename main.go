package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lpcore/internal/config"
	"lpcore/ui"
)

func main() {
	// Optional .env for local development.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded configuration from .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	app, err := ui.NewApp(cfg)
	if err != nil {
		log.Fatal("Failed to create app:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Starting LP planning assistant on http://localhost:%s", cfg.Server.Port)
	if err := app.Start(ctx); err != nil {
		log.Fatal(err)
	}
}
