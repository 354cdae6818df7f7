package logger

import (
	"log/slog"
	"os"
)

// New returns the process logger. JSON to stdout keeps log shipping trivial.
func New() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stdout, nil))
}
