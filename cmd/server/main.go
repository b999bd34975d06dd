package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"dwellwatch/internal/app"
	"dwellwatch/internal/config"
	"dwellwatch/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger := logger.NewLogger(cfg)

	application, err := app.NewApp(cfg, logger)
	if err != nil {
		logger.Error("Failed to start dwellwatch: %v", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runErr := application.Run(ctx)
	if err := application.Close(); err != nil {
		logger.Warning("Error releasing resources: %v", err)
	}
	if runErr != nil {
		logger.Error("Server stopped: %v", runErr)
		os.Exit(1)
	}
}
