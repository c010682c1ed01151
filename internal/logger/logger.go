package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/echo-chronicle/internal/config"
)

// Setup configures the global slog logger based on environment. The terminal belongs
// to the game, so records go to cfg.LogFile. The returned closer releases the file.
func Setup(cfg *config.Config) (*slog.Logger, io.Closer, error) {
	var out io.WriteCloser = nopCloser{os.Stderr}
	if cfg.LogFile != "" && cfg.LogFile != "-" {
		if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = f
	}

	logger := New(out, cfg)

	// Set as default logger
	slog.SetDefault(logger)

	return logger, out, nil
}

// New builds a logger writing to w with the configured format and level.
func New(w io.Writer, cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	if cfg.Environment == "production" {
		// JSON format for production
		handler = slog.NewJSONHandler(w, opts)
	} else {
		// Text format for development
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

// WithTurn adds the turn kind and store generation to logger context
func WithTurn(logger *slog.Logger, kind string, generation uint64) *slog.Logger {
	return logger.With("turn", kind, "generation", generation)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
