// Package logging configures structured logging for routewatch.
//
// Records go to stderr as text and, when a directory is configured, to a
// size-rotated JSON file managed by lumberjack.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/unklstewy/routewatch/pkg/config"
)

// Logger bundles the slog logger with the rotating file behind it.
type Logger struct {
	*slog.Logger
	LogFile string
	closer  io.Closer
}

// ParseLevel maps a config level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", level)
	}
}

// New builds a Logger from the logging section of the config.
// An invalid level falls back to info and is reported in the log itself.
func New(cfg config.LoggingConfig) *Logger {
	lvl, levelErr := ParseLevel(cfg.Level)
	opts := &slog.HandlerOptions{Level: lvl}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	l := &Logger{}

	if cfg.Dir != "" {
		w := &lumberjack.Logger{
			Filename:   filepath.Join(cfg.Dir, "routewatch.slog"),
			MaxSize:    32, // MB
			MaxBackups: 3,
			Compress:   true,
		}
		handlers = append(handlers, slog.NewJSONHandler(w, opts))
		l.LogFile = w.Filename
		l.closer = w
	}

	l.Logger = slog.New(teeHandler(handlers))

	l.Info("Hello logging",
		slog.Time("start", time.Now()),
		slog.String("GOOS", runtime.GOOS),
		slog.String("GOARCH", runtime.GOARCH))
	if levelErr != nil {
		l.Warn("falling back to info level", slog.Any("err", levelErr))
	}

	return l
}

// Close flushes and closes the rotating log file, if any.
func (l *Logger) Close() error {
	if l == nil || l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

// OrDefault returns l, or slog.Default() when l is nil. Components accept a
// nil logger so tests don't need to build one.
func OrDefault(l *slog.Logger) *slog.Logger {
	if l == nil {
		return slog.Default()
	}
	return l
}

// teeHandler fans every record out to all of its handlers.
type teeHandler []slog.Handler

func (t teeHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range t {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (t teeHandler) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, h := range t {
		if h.Enabled(ctx, r.Level) {
			errs = append(errs, h.Handle(ctx, r.Clone()))
		}
	}
	return errors.Join(errs...)
}

func (t teeHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (t teeHandler) WithGroup(name string) slog.Handler {
	out := make(teeHandler, len(t))
	for i, h := range t {
		out[i] = h.WithGroup(name)
	}
	return out
}
