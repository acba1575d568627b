package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process configuration: environment variables with
// defaults, plus an optional YAML overlay for the tuning block.
type Config struct {
	Environment string
	LogLevel    slog.Level

	// Storage backend: "redis" or "sqlite".
	Backend    string
	RedisAddr  string
	SQLitePath string

	// Emulator bridge websocket endpoint.
	BridgeURL string

	// Decision strategy for the built-in deciders.
	Strategy string

	Tuning Tuning
}

// Tuning holds the knobs that vary per deployment, loadable from a
// YAML file named by CONFIG_FILE.
type Tuning struct {
	Vision    Vision `yaml:"vision"`
	Settle    Settle `yaml:"settle"`
	SaveEvery int    `yaml:"save_every_cycles"`
}

// Vision describes the classifier's observation window.
type Vision struct {
	Rows        int      `yaml:"rows"`
	Cols        int      `yaml:"cols"`
	AgentRow    int      `yaml:"agent_row"`
	AgentCol    int      `yaml:"agent_col"`
	SolidLabels []string `yaml:"solid_labels"`
}

// Settle controls the post-action stabilization wait.
type Settle struct {
	MinMs            int `yaml:"min_ms"`
	TimeoutMs        int `yaml:"timeout_ms"`
	PollMs           int `yaml:"poll_ms"`
	DialogueWindowMs int `yaml:"dialogue_window_ms"`
}

func (s Settle) Min() time.Duration            { return time.Duration(s.MinMs) * time.Millisecond }
func (s Settle) Timeout() time.Duration        { return time.Duration(s.TimeoutMs) * time.Millisecond }
func (s Settle) Poll() time.Duration           { return time.Duration(s.PollMs) * time.Millisecond }
func (s Settle) DialogueWindow() time.Duration { return time.Duration(s.DialogueWindowMs) * time.Millisecond }

// Load builds a Config from the environment, then applies the YAML
// overlay when CONFIG_FILE is set.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		LogLevel:    parseLogLevel(getEnv("LOG_LEVEL", "info")),
		Backend:     getEnv("STORAGE_BACKEND", "redis"),
		RedisAddr:   getEnv("REDIS_ADDR", "localhost:6379"),
		SQLitePath:  getEnv("SQLITE_PATH", "overworld.db"),
		BridgeURL:   getEnv("BRIDGE_URL", "ws://localhost:8765/agent"),
		Strategy:    getEnv("STRATEGY", "explore"),
		Tuning: Tuning{
			Vision: Vision{
				Rows:        getEnvInt("VISION_ROWS", 9),
				Cols:        getEnvInt("VISION_COLS", 15),
				AgentRow:    getEnvInt("VISION_AGENT_ROW", 4),
				AgentCol:    getEnvInt("VISION_AGENT_COL", 7),
				SolidLabels: []string{"tree", "black"},
			},
			Settle: Settle{
				MinMs:            getEnvInt("SETTLE_MIN_MS", 150),
				TimeoutMs:        getEnvInt("SETTLE_TIMEOUT_MS", 2000),
				PollMs:           getEnvInt("SETTLE_POLL_MS", 50),
				DialogueWindowMs: getEnvInt("DIALOGUE_WINDOW_MS", 500),
			},
			SaveEvery: getEnvInt("SAVE_EVERY_CYCLES", 10),
		},
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg.Tuning); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	if c.Backend != "redis" && c.Backend != "sqlite" {
		return fmt.Errorf("unknown storage backend %q", c.Backend)
	}
	v := c.Tuning.Vision
	if v.Rows <= 0 || v.Cols <= 0 {
		return fmt.Errorf("vision window %dx%d is invalid", v.Rows, v.Cols)
	}
	if v.AgentRow < 0 || v.AgentRow >= v.Rows || v.AgentCol < 0 || v.AgentCol >= v.Cols {
		return fmt.Errorf("agent offset (%d,%d) outside %dx%d window", v.AgentRow, v.AgentCol, v.Rows, v.Cols)
	}
	if c.Tuning.Settle.TimeoutMs <= 0 {
		return fmt.Errorf("settle timeout must be positive")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
