package logging

import (
	"log/slog"
	"os"
	"strings"
)

// NewJSONLogger builds the process-wide structured logger. Every record
// carries the service name and pid so api log lines stay distinguishable
// from sidecar tooling in aggregation.
func NewJSONLogger(service, level string) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler).With(
		slog.String("service", service),
		slog.Int("pid", os.Getpid()),
	)
}

// ParseLevel maps a configuration string to a slog level. Unknown or
// empty values resolve to info so a misconfigured level never silences
// the service.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
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
