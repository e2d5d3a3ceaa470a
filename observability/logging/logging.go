package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options tune the structured logger.
type Options struct {
	Service string
	Env     string
	// Level is one of debug, info, warn, error. Empty means info.
	Level string
	// File, when set, additionally writes rotated logs to this path.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	// Output overrides stdout; tests use it to capture lines.
	Output io.Writer
}

// ParseLevel maps a level name onto slog levels.
func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

func replaceAttr(_ []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.TimeKey:
		return slog.Attr{Key: "timestamp", Value: attr.Value}
	case slog.LevelKey:
		return slog.String("severity", strings.ToUpper(attr.Value.String()))
	case slog.MessageKey:
		return slog.Attr{Key: "message", Value: attr.Value}
	}
	return attr
}

func writer(opts Options) io.Writer {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if strings.TrimSpace(opts.File) == "" {
		return out
	}
	rotating := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	return io.MultiWriter(out, rotating)
}

func baseAttrs(opts Options) []slog.Attr {
	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(opts.Service))}
	if env := strings.TrimSpace(opts.Env); env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	return attrs
}

// New builds a JSON logger without touching process globals.
func New(opts Options) *slog.Logger {
	handler := slog.NewJSONHandler(writer(opts), &slog.HandlerOptions{
		Level:       ParseLevel(opts.Level),
		ReplaceAttr: replaceAttr,
	})
	return slog.New(handler.WithAttrs(baseAttrs(opts)))
}

// Configure builds the logger, installs it as the slog default and bridges the
// standard library logger onto it.
func Configure(opts Options) *slog.Logger {
	logger := New(opts)
	slog.SetDefault(logger)

	stdBridge := slog.NewLogLogger(logger.Handler(), slog.LevelInfo)
	stdBridge.SetFlags(0)
	log.SetOutput(stdBridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return logger
}

// Setup configures JSON logging to stdout for service in env.
func Setup(service, env string) *slog.Logger {
	return Configure(Options{Service: service, Env: env})
}
