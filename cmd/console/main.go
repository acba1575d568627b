package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"overworld/internal/storage"
)

type ConsoleConfig struct {
	Backend    string
	RedisAddr  string
	SQLitePath string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		Backend:    getEnv("STORAGE_BACKEND", "redis"),
		RedisAddr:  getEnv("REDIS_ADDR", "localhost:6379"),
		SQLitePath: getEnv("SQLITE_PATH", "overworld.db"),
		Timeout:    10 * time.Second,
	}

	store, err := openStorage(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Could not open storage: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = store.Close() // Ignore error in defer
	}()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := store.Ping(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Could not connect to storage. Please ensure the agent's backend is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, store),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

func openStorage(cfg *ConsoleConfig) (storage.Storage, error) {
	switch cfg.Backend {
	case "redis":
		return storage.NewRedisStorage(cfg.RedisAddr, discardLogger()), nil
	case "sqlite":
		return storage.NewSQLiteStorage(cfg.SQLitePath, discardLogger())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
