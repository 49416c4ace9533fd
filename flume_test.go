package flume

import (
	"log/slog"
	"time"
)

// testRecord is a minimal upstream record used across the package tests,
// playing the role of the log record a hosting framework would supply.
type testRecord struct {
	time         time.Time
	level        slog.Level
	message      string
	formatted    string
	logger       string
	thread       string
	args         []any
	err          error
	file         string
	line         int
	marker       string
	ctx          map[string]string
	materialized bool
}

func newTestRecord(ctx map[string]string) *testRecord {
	return &testRecord{
		time:      time.Date(2024, time.March, 5, 12, 30, 0, 0, time.UTC),
		level:     slog.LevelInfo,
		message:   "unrecognized user %s",
		formatted: "unrecognized user 42",
		logger:    "auth.sessions",
		thread:    "worker-7",
		args:      []any{"42"},
		file:      "auth/sessions.go",
		line:      128,
		marker:    "AUDIT",
		ctx:       ctx,
	}
}

func (r *testRecord) Time() time.Time          { return r.time }
func (r *testRecord) Level() slog.Level        { return r.level }
func (r *testRecord) Message() string          { return r.message }
func (r *testRecord) FormattedMessage() string { return r.formatted }
func (r *testRecord) LoggerName() string       { return r.logger }
func (r *testRecord) ThreadName() string       { return r.thread }
func (r *testRecord) Arguments() []any         { return r.args }
func (r *testRecord) Err() error               { return r.err }
func (r *testRecord) Marker() string           { return r.marker }

func (r *testRecord) Caller() (file string, line int, ok bool) {
	return r.file, r.line, r.file != ""
}

func (r *testRecord) Context() map[string]string { return r.ctx }
func (r *testRecord) Materialize()               { r.materialized = true }
