package logger

import (
	"log/slog"
	"os"
)

// New returns a structured JSON logger writing to stdout.
// Level defaults to info; set SPONSORHUB_LOG_LEVEL=debug for verbose output.
func New() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("SPONSORHUB_LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}
