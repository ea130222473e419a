// internal/logger/logger.go

// Package logger is the structured logging capability injected into the
// supervisor, the poller, and the daemon. There is no package-level logger:
// callers build one with New and pass it down.
package logger

// Level is the logging severity.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
)

// Logger logs messages with alternating key/value pairs.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)

	// With returns a child logger carrying the given key/values.
	With(keysAndValues ...any) Logger

	Level() Level
	SetLevel(level Level)
}

// ParseLevel maps a config string to a Level. Unknown strings yield InfoLevel.
func ParseLevel(s string) Level {
	switch s {
	case "debug":
		return DebugLevel
	case "warn", "warning":
		return WarnLevel
	case "error":
		return ErrorLevel
	default:
		return InfoLevel
	}
}
