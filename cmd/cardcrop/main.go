package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"cardcrop/internal/api"
	"cardcrop/internal/config"
	"cardcrop/internal/storage"
	"cardcrop/pkg/log"
)

func main() {
	logger := log.NewLogger()

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logger.Warnf("Could not load .env file: %v", err)
	}

	cfg, err := config.New()
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}

	history, err := storage.OpenHistory(cfg.HistoryDBPath)
	if err != nil {
		logger.Fatalf("Failed to open scan history: %v", err)
	}
	defer history.Close()

	var store storage.ObjectStore
	if cfg.S3Bucket != "" {
		store, err = storage.NewS3(cfg.S3Bucket, cfg.S3Region)
		if err != nil {
			logger.Fatalf("Failed to initialize object storage: %v", err)
		}
		logger.Infof("Object storage enabled for bucket %q", cfg.S3Bucket)
	} else {
		logger.Info("Object storage disabled (AWS_BUCKET_NAME not set)")
	}

	app := api.NewFiber(logger, cfg.MaxImageSizeMB)
	api.New(logger, cfg, store, history).Start(app)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
		if err := app.Listen(addr); err != nil {
			logger.Fatalf("Server error: %v", err)
		}
	}()

	logger.Infof("cardcrop API listening on port %d (%s)", cfg.Port, cfg.Environment)

	<-sigChan
	logger.Info("Shutting down...")
	if err := app.Shutdown(); err != nil {
		logger.Errorf("Shutdown error: %v", err)
	}
}
