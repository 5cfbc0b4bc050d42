package logging

import (
	"context"
	"io"
	"maps"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// DefaultLogger is a zerolog-backed logger.
// On a terminal it writes colored console lines to stderr, otherwise JSON lines.
type DefaultLogger struct {
	zl     zerolog.Logger
	level  Level
	fields Fields
	exit   func(code int)
}

// NewDefaultLogger creates a logger on stderr, colored when stderr is a terminal
func NewDefaultLogger() *DefaultLogger {
	if isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return NewConsoleLogger(os.Stderr, true)
	}
	return NewLogger(os.Stderr)
}

// NewDefaultLoggerNoColor creates a console logger on stderr without colors
func NewDefaultLoggerNoColor() *DefaultLogger {
	return NewConsoleLogger(os.Stderr, false)
}

// NewConsoleLogger writes human-readable lines to w, with ANSI colors only when color is set
func NewConsoleLogger(w io.Writer, color bool) *DefaultLogger {
	return NewLogger(zerolog.ConsoleWriter{Out: w, NoColor: !color, TimeFormat: time.RFC3339})
}

// NewLogger creates a logger writing zerolog output to w at InfoLevel
func NewLogger(w io.Writer) *DefaultLogger {
	return &DefaultLogger{
		zl:     zerolog.New(w).With().Timestamp().Logger(),
		level:  InfoLevel,
		fields: make(Fields),
		exit:   os.Exit,
	}
}

func toZerologLevel(level Level) zerolog.Level {
	switch level {
	case DebugLevel:
		return zerolog.DebugLevel
	case InfoLevel:
		return zerolog.InfoLevel
	case WarnLevel:
		return zerolog.WarnLevel
	case ErrorLevel:
		return zerolog.ErrorLevel
	case FatalLevel:
		return zerolog.FatalLevel
	default:
		return zerolog.NoLevel
	}
}

func (d *DefaultLogger) log(level Level, err error, msg string, fields ...Fields) {
	if level < d.level {
		return
	}

	event := d.zl.WithLevel(toZerologLevel(level))
	if len(d.fields) > 0 {
		event = event.Fields(map[string]any(d.fields))
	}
	for _, f := range fields {
		event = event.Fields(map[string]any(f))
	}
	if err != nil {
		event = event.Err(err)
	}
	event.Msg(msg)

	if level == FatalLevel {
		d.exit(1)
	}
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.log(DebugLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.log(InfoLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.log(WarnLevel, nil, msg, fields...)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.log(ErrorLevel, err, msg, fields...)
}

func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.log(FatalLevel, err, msg, fields...)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	newFields := make(Fields, len(d.fields)+len(fields))
	maps.Copy(newFields, d.fields)
	maps.Copy(newFields, fields)

	return &DefaultLogger{
		zl:     d.zl,
		level:  d.level,
		fields: newFields,
		exit:   d.exit,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := fieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

func (d *DefaultLogger) SetLevel(level Level) {
	d.level = level
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
