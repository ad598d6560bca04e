// Package logging builds the process-wide slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Config holds logger settings.
type Config struct {
	Format string // json or text
	Level  slog.Level
}

// LoadConfig loads logger configuration from LOG_FORMAT and LOG_LEVEL.
func LoadConfig() (Config, error) {
	cfg := Config{Format: "json", Level: slog.LevelInfo}
	if v := strings.ToLower(os.Getenv("LOG_FORMAT")); v != "" {
		if v != "json" && v != "text" {
			return Config{}, fmt.Errorf("invalid LOG_FORMAT %q", v)
		}
		cfg.Format = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		if err := cfg.Level.UnmarshalText([]byte(v)); err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL %q: %w", v, err)
		}
	}
	return cfg, nil
}

// New returns a logger writing to w whose attributes pass through a MaskingHandler.
func New(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.Level}

	var h slog.Handler
	if cfg.Format == "text" {
		h = slog.NewTextHandler(w, opts)
	} else {
		h = slog.NewJSONHandler(w, opts)
	}
	return slog.New(NewMaskingHandler(h))
}
