package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
)

var (
	mu     sync.RWMutex
	logger = slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      slog.LevelInfo,
		TimeFormat: time.RFC3339,
	}))
)

// Setup replaces the process logger.
// format is "text" (colored via tint) or "json"; level is debug, info, warn or error.
func Setup(w io.Writer, format, level string) {
	lvl := ParseLevel(level)

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})
	default:
		handler = tint.NewHandler(w, &tint.Options{
			Level:      lvl,
			TimeFormat: time.RFC3339,
			NoColor:    !isTerminal(w),
		})
	}

	mu.Lock()
	logger = slog.New(handler)
	mu.Unlock()
}

// ParseLevel converts a level name to a slog level, defaulting to info
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

// Logger returns the current process logger
func Logger() *slog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Debug logs at debug level with key/value pairs
func Debug(msg string, args ...any) {
	Logger().Debug(msg, args...)
}

// Info logs at info level with key/value pairs
func Info(msg string, args ...any) {
	Logger().Info(msg, args...)
}

// Warn logs at warn level with key/value pairs
func Warn(msg string, args ...any) {
	Logger().Warn(msg, args...)
}

// Error logs at error level with key/value pairs
func Error(msg string, args ...any) {
	Logger().Error(msg, args...)
}

// Logf logs a printf-style message at info level
func Logf(format string, v ...interface{}) {
	Logger().Info(fmt.Sprintf(format, v...))
}

// DebugWithComponent logs at debug level tagged with a component
func DebugWithComponent(component, msg string, args ...any) {
	logWithComponent(slog.LevelDebug, component, msg, args...)
}

// InfoWithComponent logs at info level tagged with a component
func InfoWithComponent(component, msg string, args ...any) {
	logWithComponent(slog.LevelInfo, component, msg, args...)
}

// WarnWithComponent logs at warn level tagged with a component
func WarnWithComponent(component, msg string, args ...any) {
	logWithComponent(slog.LevelWarn, component, msg, args...)
}

// ErrorWithComponent logs at error level tagged with a component
func ErrorWithComponent(component, msg string, args ...any) {
	logWithComponent(slog.LevelError, component, msg, args...)
}

func logWithComponent(level slog.Level, component, msg string, args ...any) {
	Logger().With("component", component).Log(context.Background(), level, msg, args...)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
