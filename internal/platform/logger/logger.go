package logger

import (
	"log/slog"
	"os"
)

// New returns the root structured logger. Handlers attach request-scoped
// attributes themselves.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
