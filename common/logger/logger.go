package logger

import (
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"
)

// Logger provides a unified logging interface for the routing engine.
// All packages log through the package-level functions so the backend
// can be swapped (or silenced in tests) in one place.

// LogLevel represents log severity levels
type LogLevel int32

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	current atomic.Int32

	backend atomic.Pointer[slog.Logger]
)

func init() {
	current.Store(int32(LevelInfo))
	backend.Store(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})))
}

// SetLevel sets the minimum log level.
func SetLevel(level LogLevel) {
	current.Store(int32(level))
}

// SetLevelName sets the minimum log level from its config name.
// Unknown names keep the current level.
func SetLevelName(name string) {
	switch name {
	case "debug":
		SetLevel(LevelDebug)
	case "info":
		SetLevel(LevelInfo)
	case "warn", "warning":
		SetLevel(LevelWarn)
	case "error":
		SetLevel(LevelError)
	}
}

// SetBackend replaces the slog backend. Useful in tests.
func SetBackend(l *slog.Logger) {
	if l != nil {
		backend.Store(l)
	}
}

// Debugf logs a debug message
func Debugf(format string, args ...any) {
	logf(LevelDebug, format, args...)
}

// Infof logs an info message
func Infof(format string, args ...any) {
	logf(LevelInfo, format, args...)
}

// Warnf logs a warning message
func Warnf(format string, args ...any) {
	logf(LevelWarn, format, args...)
}

// Errorf logs an error message
func Errorf(format string, args ...any) {
	logf(LevelError, format, args...)
}

func logf(level LogLevel, format string, args ...any) {
	if LogLevel(current.Load()) > level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l := backend.Load()
	switch level {
	case LevelDebug:
		l.Debug(msg)
	case LevelInfo:
		l.Info(msg)
	case LevelWarn:
		l.Warn(msg)
	case LevelError:
		l.Error(msg)
	}
}
