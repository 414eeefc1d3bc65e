package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"cyclewatch/config"
	"cyclewatch/internal/logger"
	"cyclewatch/internal/signald"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds | log.Lshortfile)

	cfg := config.Load()
	lg := logger.Init("signald", logger.ParseLevel(cfg.LogLevel))

	svc, err := signald.New(cfg, lg)
	if err != nil {
		lg.Error("init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		lg.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()
	}()

	if err := svc.Run(ctx); err != nil {
		lg.Error("fatal", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
