// Package log configures structured logging for the application.
package log

import (
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with a component attribute so every line of
// a pipeline stage carries its origin.
type Logger struct {
	*slog.Logger
	component string
}

// New creates a component-scoped text logger at the given level.
func New(component string, level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return &Logger{
		Logger:    slog.New(handler).With("component", component),
		component: component,
	}
}

// WithComponent returns a logger scoped to another component.
func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{
		Logger:    l.Logger.With("component", component),
		component: component,
	}
}

// Component returns the logger's component name.
func (l *Logger) Component() string {
	return l.component
}

// SetDefault installs the logger as slog's process-wide default, so
// package-level slog calls inherit the component attribute.
func SetDefault(l *Logger) {
	slog.SetDefault(l.Logger)
}
