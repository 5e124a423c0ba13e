package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"webchat/internal/app"
	"webchat/internal/common/config"
	"webchat/internal/common/logger"
	"webchat/internal/common/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.LogDir, "webchat", cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := app.OpenStore(ctx, cfg, log)
	cancel()
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer store.Close()

	if cfg.ResetOnStart {
		resetCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := store.Reset(resetCtx)
		cancel()
		if err != nil {
			log.Fatalf("failed to reset store: %v", err)
		}
		log.Warnf("store reset on startup stage=%s", cfg.Stage)
	}

	application, err := app.New(cfg, store, log)
	if err != nil {
		log.Fatalf("failed to build application: %v", err)
	}

	log.WithFields(logger.Fields{
		"stage": cfg.Stage,
		"port":  cfg.HTTPPort,
	}).Info("starting webchat server")

	srv := server.New(cfg.HTTPPort, application.Handler)
	server.StartWithGracefulShutdown(srv, log, []server.ShutdownHook{
		application.Shutdown,
	})
}
