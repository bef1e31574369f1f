package marionette

import (
	"io"
	"log/slog"
	"os"
)

// logger receives every recoverable warning (missing capabilities, unknown
// parameter names, missing classes). Replace it with SetLogger.
var logger = NewLogger(slog.LevelWarn)

// NewLogger creates a text logger writing to stderr at the given level.
// The "error" attribute key is shortened to "err".
func NewLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == "error" {
				a.Key = "err"
			}
			return a
		},
	}))
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// SetLogger replaces the package logger. A nil logger discards output.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = NewNopLogger()
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger
}
