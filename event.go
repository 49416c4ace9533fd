package flume

import (
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Header keys the enricher always sets. The names are part of the downstream
// contract and must not change.
const (
	timestampKey = "timestamp"
	guIDKey      = "guId"
)

// Event decorates one upstream log record with the headers and body expected
// by the collector. It holds a reference to the record rather than a copy,
// adds a derived header map, and owns the (optionally compressed) body bytes.
// The semantic log content is never altered; every accessor other than
// Headers and Body reads straight through to the wrapped record.
//
// An Event is built once per log call, handed to one Manager.Send, and then
// discarded. It is not safe for concurrent mutation, but nothing here mutates
// it after construction except SetBody.
type Event struct {
	record   Record
	headers  map[string]string
	body     []byte
	compress bool
}

// compile-time check that the decoration is complete
var _ Record = (*Event)(nil)

// NewEvent wraps the upstream record and computes the collector headers
// according to opts.
//
// The headers always carry the record timestamp (unix milliseconds, decimal
// string) and a fresh time-ordered unique id under "guId". Contextual entries
// are selected per the include/exclude lists, with includes taking precedence
// when both are configured, and inserted under opts.KeyPrefix. Every key in
// opts.Required must be present in the record's contextual map, whether or
// not the selection would copy it; a missing key fails construction.
func NewEvent(rec Record, opts *EventOptions) (*Event, error) {

	if rec == nil {
		return nil, errors.New("valid record required")
	}

	if opts == nil {
		opts = DefaultEventOptions()
	} else {
		opts.resolve()
	}

	e := &Event{
		record:   rec,
		compress: opts.Compress,
		headers:  make(map[string]string),
	}
	e.headers[timestampKey] = strconv.FormatInt(rec.Time().UnixMilli(), 10)

	mdc := rec.Context()

	// selection: includes win over excludes when both are configured
	selected := make(map[string]string)
	switch {
	case opts.Includes != "":
		for _, k := range opts.includes {
			if v, ok := mdc[k]; ok {
				selected[k] = v
			}
		}
	case opts.Excludes != "":
		for k, v := range mdc {
			if !opts.excluded(k) {
				selected[k] = v
			}
		}
	default:
		for k, v := range mdc {
			selected[k] = v
		}
	}

	// required keys are checked against the original contextual map, not the
	// filtered selection
	for _, k := range opts.required {
		if _, ok := mdc[k]; !ok {
			return nil, fmt.Errorf("required key %s is missing from the context map", k)
		}
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate event guId: %w", err)
	}
	e.headers[guIDKey] = id.String()

	for k, v := range selected {
		e.headers[opts.KeyPrefix+k] = v
	}

	return e, nil
}

// Headers returns the derived header map. Callers own the Event, so the live
// map is returned rather than a copy.
func (e *Event) Headers() map[string]string { return e.headers }

// Body returns the event body as previously assigned by SetBody, or nil if no
// body has been assigned.
func (e *Event) Body() []byte { return e.body }

// SetBody assigns the event body. An empty or nil body is stored as a
// zero-length body. Otherwise, if the Event was built with compression
// enabled, the bytes are run through a gzip stream first; a compression
// failure is returned to the caller and leaves the body unassigned.
func (e *Event) SetBody(body []byte) error {

	if len(body) == 0 {
		e.body = []byte{}
		return nil
	}

	if !e.compress {
		e.body = body
		return nil
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		zw.Close()
		return fmt.Errorf("failed to compress event body: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to compress event body: %w", err)
	}
	e.body = buf.Bytes()

	return nil
}

// Record returns the wrapped upstream record.
func (e *Event) Record() Record { return e.record }

// pass-through accessors:

func (e *Event) Time() time.Time   { return e.record.Time() }
func (e *Event) Level() slog.Level { return e.record.Level() }
func (e *Event) Message() string   { return e.record.Message() }

func (e *Event) FormattedMessage() string { return e.record.FormattedMessage() }

func (e *Event) LoggerName() string { return e.record.LoggerName() }
func (e *Event) ThreadName() string { return e.record.ThreadName() }
func (e *Event) Arguments() []any   { return e.record.Arguments() }
func (e *Event) Err() error         { return e.record.Err() }

func (e *Event) Caller() (file string, line int, ok bool) { return e.record.Caller() }

func (e *Event) Marker() string             { return e.record.Marker() }
func (e *Event) Context() map[string]string { return e.record.Context() }
func (e *Event) Materialize()               { e.record.Materialize() }
