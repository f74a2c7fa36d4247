// Package config loads runloopd's settings from the environment and
// builds the process logger.
package config

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Environment variables understood by Load. All are optional.
const (
	envListenAddr = "RUNLOOP_LISTEN_ADDR"
	envDBPath     = "RUNLOOP_DB_PATH"
	envLogLevel   = "RUNLOOP_LOG_LEVEL"
	envLogFormat  = "RUNLOOP_LOG_FORMAT"
)

const (
	defaultListenAddr = ":8080"
	defaultDBPath     = "runloop.db"
)

// LogFormat selects the slog handler for the process logger.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

// Config holds the runloopd settings.
type Config struct {
	ListenAddr string
	// DBPath is the SQLite file holding configuration history;
	// ":memory:" keeps it in-process.
	DBPath    string
	LogLevel  slog.Level
	LogFormat LogFormat
}

// Load reads configuration from the environment, falling back to
// defaults for anything unset.
func Load() Config {
	return Config{
		ListenAddr: envOr(envListenAddr, defaultListenAddr),
		DBPath:     envOr(envDBPath, defaultDBPath),
		LogLevel:   parseLogLevel(os.Getenv(envLogLevel)),
		LogFormat:  parseLogFormat(os.Getenv(envLogFormat)),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parseLogLevel maps a level name to its slog level. Unknown names and
// the empty string mean info.
func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
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

// parseLogFormat maps a format name to a LogFormat. Anything other than
// "text" means JSON.
func parseLogFormat(s string) LogFormat {
	if strings.EqualFold(s, string(LogFormatText)) {
		return LogFormatText
	}
	return LogFormatJSON
}

// NewLogger builds the process logger writing to w at cfg's level and
// format.
func NewLogger(w io.Writer, cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == LogFormatText {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
