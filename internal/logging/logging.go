package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	charmlog "github.com/charmbracelet/log"
)

// Init creates and sets the package-level default slog logger on stderr.
// When outputIsStdout is true, logs are JSON so they never get mistaken for
// results on a shared terminal; otherwise a charm logger renders them for
// humans.
func Init(outputIsStdout bool, level slog.Level) {
	slog.SetDefault(slog.New(NewHandler(os.Stderr, outputIsStdout, level)))
}

// NewHandler returns the slog handler Init installs, writing to w.
func NewHandler(w io.Writer, json bool, level slog.Level) slog.Handler {
	if json {
		return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	}
	logger := charmlog.NewWithOptions(w, charmlog.Options{
		ReportTimestamp: true,
		TimeFormat:      time.TimeOnly,
		Level:           charmlog.Level(level),
		Prefix:          "timber",
	})
	logger.SetFormatter(charmlog.TextFormatter)
	return logger
}

// ParseLevel converts a string ("debug", "info", "warn", "error") to slog.Level.
// Unknown strings default to LevelInfo.
func ParseLevel(s string) slog.Level {
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
