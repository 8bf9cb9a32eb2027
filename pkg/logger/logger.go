package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
	"time"
)

// Level is a log severity.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelOff
)

// ParseLevel reads "debug", "info", "warn", "error" or "off". Anything else
// is LevelInfo.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	case "off", "none":
		return LevelOff
	default:
		return LevelInfo
	}
}

// minLevel is shared by every logger so that one setting controls them all.
var minLevel atomic.Int32

func init() {
	minLevel.Store(int32(LevelInfo))
}

// SetLevel changes the minimum level for all loggers.
func SetLevel(l Level) {
	minLevel.Store(int32(l))
}

// Logger is a wrapper around the standard library logger that tags every
// line with a scope (a component name or a user id).
type Logger struct {
	*log.Logger
	scope string
}

// New creates a logger writing to stdout with the given scope.
func New(scope string) *Logger {
	return NewWithWriter(scope, os.Stdout)
}

// NewWithWriter creates a logger writing to w.
func NewWithWriter(scope string, w io.Writer) *Logger {
	return &Logger{
		Logger: log.New(w, "", 0),
		scope:  scope,
	}
}

// With returns a logger for a narrower scope, e.g. "fridge" -> "fridge:42".
func (l *Logger) With(scope string) *Logger {
	s := scope
	if l.scope != "" {
		s = l.scope + ":" + scope
	}
	return &Logger{Logger: l.Logger, scope: s}
}

// formatMessage formats a log message with timestamp and scope
func (l *Logger) formatMessage(level, format string, v ...interface{}) string {
	timestamp := time.Now().Format(time.RFC3339)
	message := fmt.Sprintf(format, v...)

	if l.scope != "" {
		return fmt.Sprintf("[%s] [%s] [%s] %s", timestamp, level, l.scope, message)
	}

	return fmt.Sprintf("[%s] [%s] %s", timestamp, level, message)
}

func (l *Logger) print(level Level, name, format string, v ...interface{}) {
	if int32(level) < minLevel.Load() {
		return
	}
	l.Logger.Println(l.formatMessage(name, format, v...))
}

// Debug logs a debug message
func (l *Logger) Debug(format string, v ...interface{}) {
	l.print(LevelDebug, "DEBUG", format, v...)
}

// Info logs an info message
func (l *Logger) Info(format string, v ...interface{}) {
	l.print(LevelInfo, "INFO", format, v...)
}

// Warn logs a warning message
func (l *Logger) Warn(format string, v ...interface{}) {
	l.print(LevelWarn, "WARN", format, v...)
}

// Error logs an error message
func (l *Logger) Error(format string, v ...interface{}) {
	l.print(LevelError, "ERROR", format, v...)
}

// Global logger instance for application-wide logging
var Global = New("")

// SetGlobal sets the global logger
func SetGlobal(logger *Logger) {
	Global = logger
}

// Discard returns a logger that drops everything it is given.
func Discard() *Logger {
	return NewWithWriter("", io.Discard)
}
