package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vadimbarashkov/scheduled-shortener/internal/app"
	"github.com/vadimbarashkov/scheduled-shortener/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(os.Getenv("CONFIG_PATH"))
	if err != nil {
		log.Fatal(err)
	}

	logger := app.NewLogger(cfg)

	if err := app.Run(ctx, cfg, logger); err != nil {
		logger.Error("application stopped", "err", err)
		os.Exit(1)
	}
}
