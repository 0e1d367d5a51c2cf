package logger

import "github.com/user/frameio/pkg/ports"

// NoopLogger discards all messages. It is the default for library use so
// that frameio stays silent unless the caller opts in.
type NoopLogger struct{}

// NewNoop creates a logger that discards everything.
func NewNoop() *NoopLogger {
	return &NoopLogger{}
}

// Debug discards the message.
func (l *NoopLogger) Debug(msg string, args ...interface{}) {}

// Info discards the message.
func (l *NoopLogger) Info(msg string, args ...interface{}) {}

// Warn discards the message.
func (l *NoopLogger) Warn(msg string, args ...interface{}) {}

// Error discards the message.
func (l *NoopLogger) Error(msg string, args ...interface{}) {}

// WithComponent returns the same noop logger.
func (l *NoopLogger) WithComponent(component string) ports.Logger { return l }

// Ensure NoopLogger implements ports.Logger
var _ ports.Logger = (*NoopLogger)(nil)
