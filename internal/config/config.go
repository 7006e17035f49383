package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	HTTPAddr      string `env:"HTTP_ADDR" envDefault:":8080"`
	TCPAddr       string `env:"TCP_ADDR" envDefault:":4441"`
	DBDriver      string `env:"DB_DRIVER" envDefault:"sqlite3"`
	DBDSN         string `env:"DB_DSN" envDefault:"./data/highlow.db"`
	FrontendURL   string `env:"FRONTEND_URL" envDefault:"http://localhost:5173"`
	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat     string `env:"LOG_FORMAT" envDefault:"text"`
	DeckSeed      uint64 `env:"DECK_SEED" envDefault:"0"`
	SendBuffer    int    `env:"SEND_BUFFER" envDefault:"64"`
	HistoryBuffer int    `env:"HISTORY_BUFFER" envDefault:"256"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	var c Config
	if err := env.Parse(&c); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid LOG_FORMAT %q", c.LogFormat)
	}
	switch c.DBDriver {
	case "sqlite3", "postgres", "memory":
	default:
		return fmt.Errorf("invalid DB_DRIVER %q", c.DBDriver)
	}
	if c.SendBuffer < 1 {
		return fmt.Errorf("SEND_BUFFER must be positive, got %d", c.SendBuffer)
	}
	if c.HistoryBuffer < 1 {
		return fmt.Errorf("HISTORY_BUFFER must be positive, got %d", c.HistoryBuffer)
	}
	return nil
}

func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
}
