// Package logx wraps go.uber.org/zap with leveled, structured logging. The
// storage manager logs array creation and fragment commits through it
// (fields "array" and "fragment"); queries do not log. Callers that don't
// want output use Nop().
package logx

import "go.uber.org/zap"

// Logger is the structured logger handed to the storage manager. It is safe
// for concurrent use.
type Logger struct {
	z *zap.SugaredLogger
}

// New wraps an existing zap.Logger.
func New(z *zap.Logger) *Logger {
	return &Logger{z: z.Sugar()}
}

// NewProduction builds a Logger with zap's production defaults (JSON,
// info level).
func NewProduction() (*Logger, error) {
	z, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}

	return New(z), nil
}

// Nop returns a Logger that discards everything, the default for library
// consumers that never configured logging.
func Nop() *Logger {
	return New(zap.NewNop())
}

func (l *Logger) with(keysAndValues ...any) *zap.SugaredLogger {
	if l == nil || l.z == nil {
		return zap.NewNop().Sugar()
	}

	return l.z.With(keysAndValues...)
}

// Debugw logs at debug level with structured fields.
func (l *Logger) Debugw(msg string, keysAndValues ...any) {
	l.with().Debugw(msg, keysAndValues...)
}

// Infow logs at info level with structured fields.
func (l *Logger) Infow(msg string, keysAndValues ...any) {
	l.with().Infow(msg, keysAndValues...)
}

// Warnw logs at warn level with structured fields.
func (l *Logger) Warnw(msg string, keysAndValues ...any) {
	l.with().Warnw(msg, keysAndValues...)
}

// Errorw logs at error level with structured fields.
func (l *Logger) Errorw(msg string, keysAndValues ...any) {
	l.with().Errorw(msg, keysAndValues...)
}

// Sync flushes any buffered log entries. Call before process exit.
func (l *Logger) Sync() error {
	if l == nil || l.z == nil {
		return nil
	}

	return l.z.Sync()
}
