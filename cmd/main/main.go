package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"storefront/bot/internal/config"
	"storefront/bot/internal/container"

	log "github.com/sirupsen/logrus"
)

func main() {
	log.Info("Starting storefront bot...")

	// Load configuration using viper
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	setupLogging(cfg.Log)
	log.Info("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize container with all dependencies
	app, err := container.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize container: %v", err)
	}
	defer app.Close()

	log.Infof("🚀 Bot is running with %d workers", cfg.Service.MaxWorkers)

	if err := app.Run(ctx); err != nil {
		log.Errorf("Application exited with error: %v", err)
		return
	}

	log.Info("Application finished successfully")
}

func setupLogging(cfg config.LogConfig) {
	if cfg.Format == "json" {
		log.SetFormatter(&log.JSONFormatter{})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.Warnf("⚠️ Unknown log level %q, using info", cfg.Level)
		level = log.InfoLevel
	}
	log.SetLevel(level)
}
