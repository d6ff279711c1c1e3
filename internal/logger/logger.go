package logger

import (
	"io"
	"log/slog"
	"strings"

	"github.com/go-chi/httplog/v2"
)

const serviceName = "shortlink"

type Options struct {
	Level string
	JSON  bool
	// Writer defaults to stdout.
	Writer io.Writer
}

// New builds the application logger. The embedded *slog.Logger is shared
// with the service layer; the httplog wrapper drives request logging.
func New(opts Options) *httplog.Logger {
	return httplog.NewLogger(serviceName, httplog.Options{
		JSON:             opts.JSON,
		LogLevel:         ParseLevel(opts.Level),
		Concise:          !opts.JSON,
		RequestHeaders:   opts.JSON,
		MessageFieldName: "message",
		Writer:           opts.Writer,
	})
}

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
