package flume

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/vmihailenco/msgpack/v5"
)

// testSink is a Sink that captures delivered frames, optionally failing the
// first few Send calls.
type testSink struct {
	failures    int
	shutdownErr error

	mu        sync.Mutex
	frames    [][]byte
	calls     int
	shutdowns int
}

func (s *testSink) Send(p []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.calls <= s.failures {
		return errors.New("collector unavailable")
	}
	s.frames = append(s.frames, append([]byte(nil), p...))
	return nil
}

func (s *testSink) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shutdowns++
	return s.shutdownErr
}

// testFrame mirrors the msgpack array a ForwardManager writes per event.
type testFrame struct {
	Name      string
	Timestamp int64
	Headers   map[string]string
	Body      []byte
}

func decodeTestFrame(p []byte) (*testFrame, error) {
	dec := msgpack.NewDecoder(bytes.NewReader(p))

	n, err := dec.DecodeArrayLen()
	if err != nil {
		return nil, fmt.Errorf("failed to decode the outer frame array length: %v", err)
	}
	if n != forwardFrameLen {
		return nil, fmt.Errorf("unexpected frame array length: %d", n)
	}

	f := &testFrame{}
	if f.Name, err = dec.DecodeString(); err != nil {
		return nil, fmt.Errorf("failed to decode the name field: %v", err)
	}
	if f.Timestamp, err = dec.DecodeInt64(); err != nil {
		return nil, fmt.Errorf("failed to decode the timestamp field: %v", err)
	}
	if err = dec.Decode(&f.Headers); err != nil {
		return nil, fmt.Errorf("failed to decode the headers field: %v", err)
	}
	if f.Body, err = dec.DecodeBytes(); err != nil {
		return nil, fmt.Errorf("failed to decode the body field: %v", err)
	}
	return f, nil
}

func TestForwardManager_InvalidArgs(t *testing.T) {
	if _, err := NewForwardManager("", &testSink{}, nil); err == nil {
		t.Error("expected an error for an empty name")
	}
	if _, err := NewForwardManager("agent-1", nil, nil); err == nil {
		t.Error("expected an error for a nil sink")
	}

	m, err := NewForwardManager("agent-1", &testSink{}, nil)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	if err = m.Send(nil, 0, 0); err == nil {
		t.Error("expected an error for a nil event")
	}
}

func TestForwardManager_SendEncodesFrame(t *testing.T) {
	sink := &testSink{}
	m, err := NewForwardManager("agent-1", sink, nil)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}

	rec := newTestRecord(map[string]string{"env": "prod"})
	e, err := NewEvent(rec, &EventOptions{KeyPrefix: "app."})
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	if err = e.SetBody([]byte("unrecognized user 42")); err != nil {
		t.Fatalf("failed to set body: %v", err)
	}

	if err = m.Send(e, 1, 1); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	if len(sink.frames) != 1 {
		t.Fatalf("expected 1 delivered frame, got: %d", len(sink.frames))
	}
	f, err := decodeTestFrame(sink.frames[0])
	if err != nil {
		t.Fatalf("failed to decode the delivered frame: %v", err)
	}

	if f.Name != "agent-1" {
		t.Errorf("frame name: expected: agent-1, got: %s", f.Name)
	}
	if f.Timestamp != rec.time.UnixMilli() {
		t.Errorf("frame timestamp: expected: %d, got: %d", rec.time.UnixMilli(), f.Timestamp)
	}
	if got := f.Headers["app.env"]; got != "prod" {
		t.Errorf("frame headers missing the contextual entry: %v", f.Headers)
	}
	if _, ok := f.Headers[guIDKey]; !ok {
		t.Errorf("frame headers missing guId: %v", f.Headers)
	}
	if !bytes.Equal(f.Body, []byte("unrecognized user 42")) {
		t.Errorf("frame body: expected: %q, got: %q", "unrecognized user 42", f.Body)
	}
}

func TestForwardManager_PooledEncoderReuse(t *testing.T) {
	sink := &testSink{}
	m, err := NewForwardManager("agent-1", sink, nil)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}

	for i := 0; i < 3; i++ {
		e, err := NewEvent(newTestRecord(nil), nil)
		if err != nil {
			t.Fatalf("failed to build event %d: %v", i, err)
		}
		if err = e.SetBody([]byte(fmt.Sprintf("message-%d", i))); err != nil {
			t.Fatalf("failed to set body %d: %v", i, err)
		}
		if err = m.Send(e, 1, 1); err != nil {
			t.Fatalf("failed to send event %d: %v", i, err)
		}
	}

	if len(sink.frames) != 3 {
		t.Fatalf("expected 3 delivered frames, got: %d", len(sink.frames))
	}
	for i := 0; i < 3; i++ {
		f, err := decodeTestFrame(sink.frames[i])
		if err != nil {
			t.Fatalf("failed to decode frame %d: %v", i, err)
		}
		if f.Name != "agent-1" {
			t.Errorf("frame %d name: expected: agent-1, got: %s", i, f.Name)
		}
		if expect := fmt.Sprintf("message-%d", i); !bytes.Equal(f.Body, []byte(expect)) {
			t.Errorf("frame %d body: expected: %q, got: %q", i, expect, f.Body)
		}
	}
}

func TestForwardManager_SendRetries(t *testing.T) {

	tests := []struct {
		name        string
		failures    int
		retries     int
		expectErr   bool
		expectCalls int
	}{
		{"recovers within the retry budget", 2, 3, false, 3},
		{"single try with no room to retry", 1, 1, true, 1},
		{"gives up after the retry budget", 5, 2, true, 2},
	}

	for i := 0; i < len(tests); i++ {
		tt := tests[i]
		t.Run(tt.name, func(t *testing.T) {
			sink := &testSink{failures: tt.failures}
			m, err := NewForwardManager("agent-1", sink, nil)
			if err != nil {
				t.Fatalf("failed to build manager: %v", err)
			}

			e, err := NewEvent(newTestRecord(nil), nil)
			if err != nil {
				t.Fatalf("failed to build event: %v", err)
			}
			if err = e.SetBody([]byte("hello")); err != nil {
				t.Fatalf("failed to set body: %v", err)
			}

			err = m.Send(e, 1, tt.retries)
			if tt.expectErr && err == nil {
				t.Fatal("expected a delivery error, got nil")
			}
			if !tt.expectErr && err != nil {
				t.Fatalf("unexpected delivery error: %v", err)
			}
			if sink.calls != tt.expectCalls {
				t.Fatalf("expected %d delivery attempts, got: %d", tt.expectCalls, sink.calls)
			}
		})
	}
}

func TestForwardManager_SendHintFallbacks(t *testing.T) {
	sink := &testSink{failures: 2}
	m, err := NewForwardManager("agent-1", sink, &ForwardOptions{
		RetryDelay:   time.Millisecond,
		MaxSendTries: 3,
	})
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}

	e, err := NewEvent(newTestRecord(nil), nil)
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	if err = e.SetBody(nil); err != nil {
		t.Fatalf("failed to set body: %v", err)
	}

	// hints <= 0 fall back to the configured delivery policy
	if err = m.Send(e, 0, 0); err != nil {
		t.Fatalf("expected the options to supply the retry budget: %v", err)
	}
	if sink.calls != 3 {
		t.Fatalf("expected 3 delivery attempts, got: %d", sink.calls)
	}
}

func TestForwardManager_ContentFormat(t *testing.T) {
	m, err := NewForwardManager("agent-1", &testSink{}, nil)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}
	cf := m.ContentFormat()
	if cf["structured"] != "msgpack" {
		t.Fatalf("unexpected content format: %v", cf)
	}
}

func TestForwardManager_CloseShutsDownSink(t *testing.T) {
	sink := &testSink{}
	m, err := NewForwardManager("agent-1", sink, nil)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}

	if err = m.Close(); err != nil {
		t.Fatalf("failed to close: %v", err)
	}
	if sink.shutdowns != 1 {
		t.Fatalf("expected 1 sink shutdown, got: %d", sink.shutdowns)
	}
}

func TestForwardManager_CloseErrorSurfaces(t *testing.T) {
	shutdownErr := errors.New("drain timed out")
	m, err := NewForwardManager("agent-1", &testSink{shutdownErr: shutdownErr}, nil)
	if err != nil {
		t.Fatalf("failed to build manager: %v", err)
	}

	if err = m.Close(); !errors.Is(err, shutdownErr) {
		t.Fatalf("expected the shutdown error to surface, got: %v", err)
	}
}

func TestForwardManager_WithRegistry(t *testing.T) {
	r := NewRegistry()
	sink := &testSink{}
	factory := NewForwardManagerFactory(sink, nil)

	m1, err := r.Acquire("agent-1", factory)
	if err != nil {
		t.Fatalf("failed to acquire: %v", err)
	}
	m2, err := r.Acquire("agent-1", factory)
	if err != nil {
		t.Fatalf("failed to acquire: %v", err)
	}
	if m1 != m2 {
		t.Fatal("appenders sharing a name received different managers")
	}

	e, err := NewEvent(newTestRecord(nil), nil)
	if err != nil {
		t.Fatalf("failed to build event: %v", err)
	}
	if err = e.SetBody([]byte("hello")); err != nil {
		t.Fatalf("failed to set body: %v", err)
	}
	if err = m1.Send(e, 1, 1); err != nil {
		t.Fatalf("failed to send: %v", err)
	}

	if err = r.Release(m1); err != nil {
		t.Fatalf("failed first release: %v", err)
	}
	if sink.shutdowns != 0 {
		t.Fatal("sink was shut down while the manager was still referenced")
	}

	if err = r.Release(m2); err != nil {
		t.Fatalf("failed final release: %v", err)
	}
	if sink.shutdowns != 1 {
		t.Fatalf("expected 1 sink shutdown after the final release, got: %d", sink.shutdowns)
	}
}
