// Package core holds the ambient concerns shared by the forwarding pipeline:
// structured logging, configuration loading and global RNG/time helpers.
package core

import (
	"fmt"
	"log/slog"
	"os"
)

// Level mirrors std/log's level constants: lower is more verbose.
type Level int

const (
	LevelTrace Level = -8
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
	LevelFatal Level = 12
)

// ParseLevel parses a level name such as "DEBUG" into a Level.
func ParseLevel(s string) (Level, error) {
	switch s {
	case "TRACE":
		return LevelTrace, nil
	case "DEBUG":
		return LevelDebug, nil
	case "INFO":
		return LevelInfo, nil
	case "WARN":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	case "FATAL":
		return LevelFatal, nil
	}
	return LevelInfo, fmt.Errorf("invalid log level: %s", s)
}

// String renders the level as its name, or "UNKNOWN".
func (level Level) String() string {
	switch level {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// Subsystem is any component that can name itself for a log line (e.g. a
// strategy, the forwarder itself, a producer).
type Subsystem interface {
	String() string
}

// Logger is a small structured logger over the standard library's log/slog.
type Logger struct {
	min   Level
	inner *slog.Logger
}

// Log is the package-level logger every pipeline stage and collaborator logs
// through.
var Log = NewLogger(LevelInfo)

// NewLogger constructs a Logger that suppresses anything below min.
func NewLogger(min Level) *Logger {
	return &Logger{
		min:   min,
		inner: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})),
	}
}

// SetMinLevel changes the minimum level the global logger emits.
func (l *Logger) SetMinLevel(min Level) { l.min = min }

func (l *Logger) log(level Level, sub Subsystem, msg string, kv ...any) {
	if level < l.min {
		return
	}
	args := make([]any, 0, len(kv)+2)
	args = append(args, "component", sub.String())
	args = append(args, kv...)
	switch {
	case level >= LevelError:
		l.inner.Error(msg, args...)
	case level >= LevelWarn:
		l.inner.Warn(msg, args...)
	case level >= LevelInfo:
		l.inner.Info(msg, args...)
	default:
		l.inner.Debug(msg, args...)
	}
}

func (l *Logger) Trace(sub Subsystem, msg string, kv ...any) { l.log(LevelTrace, sub, msg, kv...) }
func (l *Logger) Debug(sub Subsystem, msg string, kv ...any) { l.log(LevelDebug, sub, msg, kv...) }
func (l *Logger) Info(sub Subsystem, msg string, kv ...any)  { l.log(LevelInfo, sub, msg, kv...) }
func (l *Logger) Warn(sub Subsystem, msg string, kv ...any)  { l.log(LevelWarn, sub, msg, kv...) }
func (l *Logger) Error(sub Subsystem, msg string, kv ...any) { l.log(LevelError, sub, msg, kv...) }

// Fatal logs at FATAL and exits.
func (l *Logger) Fatal(sub Subsystem, msg string, kv ...any) {
	l.log(LevelFatal, sub, msg, kv...)
	os.Exit(1)
}
