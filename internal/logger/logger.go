// Package logger provides module-scoped structured logging on log/slog.
//
// Components receive a Logger for their module and log with typed fields:
//
//	log := central.Module("catalog")
//	log.Info("family report built",
//	    logger.String("family", "MELASTOMATACEAE"),
//	    logger.Int("count", 42))
//
// Console output is text without timestamps; the optional log file holds
// JSON lines. Levels can be set per module through LoggingConfig.
//
// Tests usually want:
//
//	log := logger.NewSlogLogger(io.Discard, logger.LogLevelError, time.UTC)
package logger

import (
	"context"
	"time"
)

// LogLevel names a severity accepted in configuration
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Field is a structured key/value attached to a log line
type Field struct {
	Key   string
	Value any
}

// Logger is passed to components instead of a global
type Logger interface {
	// Module returns a child logger named parent.name
	Module(name string) Logger

	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Log(level LogLevel, msg string, fields ...Field)

	With(fields ...Field) Logger
	// WithContext attaches the request id stored by WithTraceID
	WithContext(ctx context.Context) Logger

	Flush() error
}

func String(key, value string) Field { return Field{Key: key, Value: value} }

func Int(key string, value int) Field { return Field{Key: key, Value: value} }

func Int64(key string, value int64) Field { return Field{Key: key, Value: value} }

// Float64 values are rounded to three decimals on output
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

func Bool(key string, value bool) Field { return Field{Key: key, Value: value} }

// Duration values render like "1.5s"
func Duration(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

func Time(key string, value time.Time) Field { return Field{Key: key, Value: value} }

func Any(key string, value any) Field { return Field{Key: key, Value: value} }

// Error always uses the key "error". The message is redacted since
// transport errors embed request URLs.
//
//	if err := svc.LoadRemote(ctx, false); err != nil {
//	    log.Error("dataset load failed", logger.Error(err))
//	}
func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: RedactSensitiveData(err.Error())}
}

// URL holds a URL with credential query parameters masked
func URL(key, rawURL string) Field {
	return Field{Key: key, Value: RedactURL(rawURL)}
}
