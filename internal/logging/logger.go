// Package logging holds the process-wide structured logger.
package logging

import (
	"log/slog"
	"os"
	"strings"
	"sync"
)

var (
	logger *slog.Logger
	once   sync.Once
)

// GetLogger returns the shared JSON logger. The level is read from LOG_LEVEL
// on first use.
func GetLogger() *slog.Logger {
	once.Do(func() {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: parseLevel(os.Getenv("LOG_LEVEL")),
		}))
	})
	return logger
}

// Component returns the shared logger tagged with a component name.
func Component(name string) *slog.Logger {
	return GetLogger().With(slog.String("component", name))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
