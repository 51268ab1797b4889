// Package zerolog adapts github.com/rs/zerolog to the sheetquery logger.
package zerolog

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	loglib "github.com/nao1215/sheetquery/log"
)

// defaultModule tags entries that do not carry their own module field.
const defaultModule = "sheetquery"

// Logger writes sheetquery log entries through zerolog. A nil *Logger
// discards everything, so it is safe to hand to sheetquery even when typed.
type Logger struct {
	zerologger *zerolog.Logger
	fields     loglib.Fields
}

// NewLogger wraps zl. A nil zl discards every entry.
func NewLogger(zl *zerolog.Logger) *Logger {
	if zl == nil {
		nop := zerolog.Nop()
		zl = &nop
	}
	return &Logger{
		zerologger: zl,
		fields:     loglib.Fields{loglib.ModuleField: defaultModule},
	}
}

// NewConsoleLogger returns a human readable logger writing to w.
// An unknown level falls back to info.
func NewConsoleLogger(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, TimeFormat: time.Kitchen}).
		Level(lvl).
		With().Timestamp().Logger()
	return NewLogger(&zl)
}

func (l *Logger) Trace(msg string, fields ...loglib.Fields) {
	l.write(l.event(zerolog.TraceLevel), msg, fields)
}

func (l *Logger) Debug(msg string, fields ...loglib.Fields) {
	l.write(l.event(zerolog.DebugLevel), msg, fields)
}

func (l *Logger) Info(msg string, fields ...loglib.Fields) {
	l.write(l.event(zerolog.InfoLevel), msg, fields)
}

func (l *Logger) Warn(err error, msg string, fields ...loglib.Fields) {
	l.write(l.event(zerolog.WarnLevel).Err(err), msg, fields)
}

func (l *Logger) Error(err error, msg string, fields ...loglib.Fields) {
	l.write(l.event(zerolog.ErrorLevel).Err(err), msg, fields)
}

func (l *Logger) WithFields(fields loglib.Fields) loglib.Logger {
	if l == nil {
		return NewLogger(nil).WithFields(fields)
	}
	return &Logger{
		zerologger: l.zerologger,
		fields:     loglib.MergeFields(l.fields, fields),
	}
}

// event returns nil when the level is disabled or l cannot log. zerolog
// events ignore every call on a nil receiver.
func (l *Logger) event(level zerolog.Level) *zerolog.Event {
	if l == nil || l.zerologger == nil {
		return nil
	}
	return l.zerologger.WithLevel(level)
}

// write adds the stored fields and then the per call fields, which win on
// duplicate keys.
func (l *Logger) write(event *zerolog.Event, msg string, fields []loglib.Fields) {
	if event == nil {
		return
	}
	merged := l.fields
	for _, f := range fields {
		merged = loglib.MergeFields(merged, f)
	}
	withFields(event, merged).Msg(msg)
}

func withFields(event *zerolog.Event, fields loglib.Fields) *zerolog.Event {
	for key, value := range fields {
		switch v := value.(type) {
		case string:
			event = event.Str(key, v)
		case int:
			event = event.Int(key, v)
		case int64:
			event = event.Int64(key, v)
		case bool:
			event = event.Bool(key, v)
		case time.Time:
			event = event.Time(key, v)
		case time.Duration:
			event = event.Dur(key, v)
		case []string:
			event = event.Strs(key, v)
		case error:
			event = event.AnErr(key, v)
		case fmt.Stringer:
			// property types and other descriptive values
			event = event.Stringer(key, v)
		default:
			event = event.Any(key, v)
		}
	}
	return event
}
