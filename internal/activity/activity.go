// Package activity accepts fire-and-forget records of named operations.
// Storage format and durability belong to whatever sits behind the Log
// interface; the core only emits.
package activity

import (
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
)

// Log records that an identity performed a named operation. Implementations
// must never block the caller and must swallow their own failures.
type Log interface {
	Record(op, identity string, keyvals ...any)
}

// Nop discards every record.
type Nop struct{}

func (Nop) Record(string, string, ...any) {}

// Logger writes activity records as structured log lines. Good enough as a
// durable-store stand-in; swap the Log interface for a real sink later.
type Logger struct {
	logger *log.Logger
	clock  quartz.Clock
}

// NewLogger creates an activity log backed by the given logger.
func NewLogger(logger *log.Logger, clock quartz.Clock) *Logger {
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &Logger{
		logger: logger.WithPrefix("activity"),
		clock:  clock,
	}
}

// Record implements Log.
func (l *Logger) Record(op, identity string, keyvals ...any) {
	fields := append([]any{"op", op, "identity", identity, "at", l.clock.Now()}, keyvals...)
	l.logger.Info("activity", fields...)
}
