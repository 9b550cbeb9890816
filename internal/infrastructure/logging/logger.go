package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/nerrad567/roomclimate/internal/infrastructure/config"
)

const serviceName = "roomclimate"

// redacted replaces the value of any attribute whose key names a credential.
const redacted = "[REDACTED]"

// sensitiveKeys are matched case-insensitively against attribute keys,
// including keys nested in groups.
var sensitiveKeys = []string{"password", "secret", "token", "authorization"}

// Logger is a slog.Logger carrying service and version on every entry.
//
// It satisfies the small Logger interfaces declared by the mqtt, catalog,
// control and api packages, so one value is handed to every component.
// Attributes named like credentials are redacted before they are written.
type Logger struct {
	*slog.Logger
}

// New builds the process logger from the logging section of config.yaml.
//
// Parameters:
//   - cfg: level (debug|info|warn|error), format (json|text), output (stdout|stderr)
//   - version: Build version attached to every entry
//
// Returns:
//   - *Logger: Ready for use; unknown values fall back to info, json, stdout
func New(cfg config.LoggingConfig, version string) *Logger {
	out := io.Writer(os.Stdout)
	if strings.EqualFold(cfg.Output, "stderr") {
		out = os.Stderr
	}
	return NewWithWriter(cfg, version, out)
}

// NewWithWriter is New writing to w. cfg.Output is ignored.
func NewWithWriter(cfg config.LoggingConfig, version string, w io.Writer) *Logger {
	level := parseLevel(cfg.Level)
	opts := &slog.HandlerOptions{
		Level:       level,
		AddSource:   level == slog.LevelDebug,
		ReplaceAttr: redact,
	}

	var handler slog.Handler = slog.NewJSONHandler(w, opts)
	if strings.EqualFold(cfg.Format, "text") {
		handler = slog.NewTextHandler(w, opts)
	}

	return &Logger{Logger: slog.New(handler).With(
		slog.String("service", serviceName),
		slog.String("version", version),
	)}
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
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

func redact(_ []string, a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup || a.Value.String() == "" {
		return a
	}
	key := strings.ToLower(a.Key)
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return slog.String(a.Key, redacted)
		}
	}
	return a
}

// With returns a child logger with extra attributes.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{Logger: l.Logger.With(args...)}
}

// Component tags entries with the subsystem that wrote them, e.g.
// "registry", "control", "mqtt" or "websocket".
func (l *Logger) Component(name string) *Logger {
	return l.With("component", name)
}

// Default is used until config.yaml has been loaded: json, info, stdout.
func Default() *Logger {
	return New(config.LoggingConfig{Level: "info", Format: "json", Output: "stdout"}, "dev")
}

// Discard drops everything.
func Discard() *Logger {
	return &Logger{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}
