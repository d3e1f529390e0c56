package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"relay-bot/internal/config"
	"relay-bot/internal/health"
	"relay-bot/internal/scheduler"
	"relay-bot/internal/store"
	"relay-bot/internal/telegram"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if cfg.BotToken == "" {
		slog.Error("BOT_TOKEN is required")
		os.Exit(1)
	}
	if cfg.OwnerID == 0 {
		slog.Error("OWNER_ID is required")
		os.Exit(1)
	}

	st, err := store.Open(cfg.DataFile)
	if err != nil {
		slog.Error("Failed to open store", "path", cfg.DataFile, "error", err)
		os.Exit(1)
	}

	svc, err := telegram.New(cfg, st)
	if err != nil {
		slog.Error("Failed to create telegram service", "error", err)
		os.Exit(1)
	}

	sched := scheduler.NewScheduler(st, svc.Bot(), cfg)
	if err := sched.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer sched.Stop()

	healthSrv := health.NewServer(cfg.HealthAddr, sched.Heartbeats)
	go func() {
		if err := healthSrv.Start(); err != nil {
			slog.Error("Health server failed", "error", err)
		}
	}()
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := healthSrv.Stop(ctx); err != nil {
			slog.Warn("Health server shutdown failed", "error", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("Bot starting")
	if err := svc.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Bot stopped")
}
