package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"note-taker/internal/config"
)

var (
	singleton *slog.Logger
	once      sync.Once
)

// Init initializes the singleton logger from the provided config, writing to stdout.
// It is thread-safe and idempotent - the first successful call wins,
// and subsequent calls return the same logger instance.
func Init(cfg config.Config) (*slog.Logger, error) {
	return InitTo(cfg, os.Stdout)
}

// InitTo is Init with an explicit destination. The notes CLI logs to stderr so
// command output on stdout stays pipeable.
func InitTo(cfg config.Config, w io.Writer) (*slog.Logger, error) {
	once.Do(func() {
		singleton = New(cfg, w)
	})

	return singleton, nil
}

// New builds a standalone logger without touching the singleton.
func New(cfg config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}

	var handler slog.Handler
	switch strings.ToLower(cfg.LogFormat) {
	case "text":
		handler = slog.NewTextHandler(w, opts)
	default:
		handler = slog.NewJSONHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// L returns the singleton logger instance.
// Init must be called first, otherwise this will return nil.
func L() *slog.Logger {
	return singleton
}
