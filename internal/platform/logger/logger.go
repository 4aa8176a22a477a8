package logger

import (
	"log/slog"
	"os"
)

// New returns the process-wide structured logger. Text in dev, JSON elsewhere.
func New(env string) *slog.Logger {
	if env == "dev" {
		return slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
