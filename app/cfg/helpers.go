package cfg

import (
	"log/slog"
	"os"
	"strings"
)

// envBoolDefaultTrue reads a boolean environment toggle that the tool
// treats as enabled unless explicitly turned off.
func envBoolDefaultTrue(key string) bool {
	v := strings.TrimSpace(os.Getenv(key))
	switch v {
	case "0", "false", "False", "FALSE":
		return false
	}
	return true
}

// SlogLevel maps the configured log verbosity onto a slog level.
func (c *Cfg) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
