// Package conf loads client configuration from an optional TOML file with
// environment variable overrides. A .env file in the working directory is
// honored when present.
package conf

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

type Config struct {
	// BaseURL is the judge API origin, e.g. "https://judge.example.org".
	BaseURL string `toml:"base_url"`
	// Dev starts an in-process judge server and points the client at it.
	Dev bool `toml:"dev"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`
}

func defaults() Config {
	return Config{
		BaseURL:  "http://localhost:8080",
		LogLevel: "info",
	}
}

// Load reads path (skipped when empty or missing) and then applies
// PENGUIN_BASE_URL, PENGUIN_DEV and PENGUIN_LOG_LEVEL overrides.
func Load(path string) (Config, error) {
	godotenv.Load() // best effort, absence of .env is normal

	cfg := defaults()
	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		default:
			if err := toml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv("PENGUIN_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("PENGUIN_DEV"); v != "" {
		cfg.Dev = v == "1" || v == "true"
	}
	if v := os.Getenv("PENGUIN_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog.Level, defaulting to
// info for unknown names.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
