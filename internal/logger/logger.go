package logger

import "github.com/google/uuid"

type Fields map[string]any

type Logger interface {
	Trace(args ...any)
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Fatal(args ...any)

	WithFields(fields Fields) Logger
	WithField(key string, value any) Logger
	WithError(err error) Logger
}

// WithTrace scopes l to a single unit of work under a fresh trace_id.
func WithTrace(l Logger, fields Fields) Logger {
	scoped := Fields{"trace_id": uuid.NewString()}
	for k, v := range fields {
		scoped[k] = v
	}
	return l.WithFields(scoped)
}
