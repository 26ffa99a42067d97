// Command server serves the social feed HTTP API.
//
// Configuration comes from defaults, an optional config.yaml and FEED_*
// environment variables (see internal/config).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sakif/social-feed/internal/config"
	"github.com/sakif/social-feed/internal/feedstore"
	"github.com/sakif/social-feed/internal/server"
)

func main() {
	cfg, err := config.Load(os.Getenv("FEED_CONFIG"))
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	store, err := feedstore.New(cfg.DBPath, feedstore.WithLogger(logger))
	if err != nil {
		logger.Error("failed to create store", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srv := server.New(server.Config{
		Port:             cfg.Port,
		SessionTTL:       cfg.SessionTTL,
		DefaultAvatarURL: cfg.DefaultAvatarURL,
	}, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting", slog.String("database", cfg.DBPath))
	if err := srv.Start(ctx); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
