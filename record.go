package flume

import (
	"log/slog"
	"time"
)

// Record is the upstream log record that an Event decorates. This package
// never constructs records itself; the logging framework hosting the appender
// supplies them, and an Event only ever reads through this interface.
type Record interface {

	// Time reports when the record was created.
	Time() time.Time

	// Level reports the record severity.
	Level() slog.Level

	// Message returns the raw, unformatted log message.
	Message() string

	// FormattedMessage returns the message with its arguments applied.
	FormattedMessage() string

	// LoggerName identifies the logger that produced the record.
	LoggerName() string

	// ThreadName identifies the thread of execution that produced the
	// record, in whatever terms the upstream framework uses.
	ThreadName() string

	// Arguments returns the message arguments, if any.
	Arguments() []any

	// Err returns the error attached to the record, if any.
	Err() error

	// Caller reports the source location of the log call, when known.
	Caller() (file string, line int, ok bool)

	// Marker returns the marker attached to the record, or an empty string.
	Marker() string

	// Context returns the contextual (MDC style) key/value map attached to
	// the record.
	Context() map[string]string

	// Materialize asks the record to capture any lazily computed state, such
	// as the formatted message or the contextual map, before the record is
	// handed off to another goroutine.
	Materialize()
}
