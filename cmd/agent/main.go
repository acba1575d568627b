package main

import (
	"context"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"overworld/internal/bridge"
	"overworld/internal/config"
	"overworld/internal/decide"
	"overworld/internal/engine"
	"overworld/internal/logger"
	"overworld/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	log := logger.Setup(cfg)

	log.Info("Starting Overworld Agent",
		"environment", cfg.Environment,
		"backend", cfg.Backend,
		"strategy", cfg.Strategy)

	// Initialize storage service
	var store storage.Storage
	switch cfg.Backend {
	case "redis":
		redisStore := storage.NewRedisStorage(cfg.RedisAddr, log)
		waitCtx, waitCancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer waitCancel()
		if err := redisStore.WaitForConnection(waitCtx); err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		store = redisStore
	case "sqlite":
		sqliteStore, err := storage.NewSQLiteStorage(cfg.SQLitePath, log)
		if err != nil {
			log.Error("Failed to open SQLite database", "error", err, "path", cfg.SQLitePath)
			os.Exit(1)
		}
		store = sqliteStore
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing storage", "error", err)
		}
	}()
	log.Info("Storage service initialized successfully")

	// Connect to the emulator bridge
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer dialCancel()
	client, err := bridge.Dial(dialCtx, cfg.BridgeURL, "overworld-agent", log)
	if err != nil {
		log.Error("Failed to connect to bridge", "error", err, "url", cfg.BridgeURL)
		os.Exit(1)
	}
	defer func() {
		if err := client.Close(); err != nil {
			log.Error("Error closing bridge", "error", err)
		}
	}()

	decider, err := decide.New(cfg.Strategy, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		log.Error("Failed to create decision source", "error", err)
		os.Exit(1)
	}

	eng, err := engine.New(cfg.Tuning, log, store, client, client, client, client, decider)
	if err != nil {
		log.Error("Failed to create engine", "error", err)
		os.Exit(1)
	}

	// Handle graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- eng.Run(ctx)
	}()

	log.Info("Agent started, exploring...")

	<-quit
	log.Info("Shutdown signal received")
	cancel()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		log.Warn("Engine did not stop in time")
	}
	log.Info("Agent exited")
}
