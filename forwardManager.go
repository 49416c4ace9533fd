package flume

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bitdabbler/backoff"
)

// Sink is the transport capability of the external collector client used by
// a ForwardManager. Connection setup, batching, and any policy beyond the
// per-event retry pacing the manager applies belong to the implementation.
type Sink interface {

	// Send delivers one serialized event frame.
	Send(p []byte) error

	// Shutdown flushes anything buffered and tears down the connection,
	// bounded by the Context.
	Shutdown(ctx context.Context) error
}

// ForwardManager is a Manager that serializes enriched events into msgpack
// frames and hands them to an external Sink client. Each event is written as
// the outer array
//
//	[name<string>, timestamp<int64 unix ms>, headers<map[string]string>, body<bin>]
//
// with the name taken from the manager registration. The manager name and the
// array header are pre-encoded once per encoder pool.
//
// Send is safe for concurrent use provided the Sink is; each call uses its
// own pooled encoder and its own backoff state.
type ForwardManager struct {
	opts *ForwardOptions
	name string
	sink Sink
	pool *EncoderPool
}

var _ Manager = (*ForwardManager)(nil)

// NewForwardManager returns a ForwardManager that delivers events for name
// through sink.
func NewForwardManager(name string, sink Sink, opts *ForwardOptions) (*ForwardManager, error) {

	if len(name) == 0 {
		return nil, errors.New("valid manager name required")
	}
	if sink == nil {
		return nil, errors.New("valid sink client required")
	}

	if opts == nil {
		opts = DefaultForwardOptions()
	} else {
		opts.resolve()
	}

	return &ForwardManager{
		opts: opts,
		name: name,
		sink: sink,
		pool: NewEncoderPool(name, &EncoderOptions{
			NewBufferCap: opts.NewBufferCap,
			MaxBufferCap: opts.MaxBufferCap,
		}),
	}, nil
}

// NewForwardManagerFactory returns a ManagerFactory that builds
// ForwardManagers over sink, for use with Registry.Acquire.
func NewForwardManagerFactory(sink Sink, opts *ForwardOptions) ManagerFactory {
	return func(name string) (Manager, error) {
		return NewForwardManager(name, sink, opts)
	}
}

// Name returns the name the manager was registered under.
func (m *ForwardManager) Name() string { return m.name }

// Send serializes the event and delivers it through the sink client. The
// hints drive the delivery policy: up to retries attempts are made, pacing
// the gaps exponentially starting from delay milliseconds. Hints <= 0 fall
// back to the RetryDelay and MaxSendTries options. The error from the final
// attempt is returned if every attempt fails.
func (m *ForwardManager) Send(e *Event, delay, retries int) error {

	if e == nil {
		return errors.New("valid event required")
	}

	enc := m.pool.Get()
	defer enc.Free()

	err := enc.EncodeInt64(e.Time().UnixMilli())
	if err == nil {
		err = enc.Encode(e.Headers())
	}
	if err == nil {
		err = enc.EncodeBytes(e.Body())
	}
	if err != nil {
		return fmt.Errorf("failed to encode event for %s: %w", m.name, err)
	}

	if delay <= 0 {
		delay = int(m.opts.RetryDelay / time.Millisecond)
	}
	if retries <= 0 {
		retries = m.opts.MaxSendTries
	}

	b, err := backoff.New(
		backoff.WithInitialDelay(time.Duration(delay)*time.Millisecond),
		backoff.WithExponentialLimit(maxRetryPause),
	)
	if err != nil {
		return fmt.Errorf("failed to configure send backoff: %w", err)
	}

	for i := 1; ; i++ {
		err = m.sink.Send(enc.Bytes())
		if err == nil {
			return nil
		}

		m.debug("failed to deliver event on attempt %d: %v\n", i, err)

		if i >= retries {
			break
		}
		b.Sleep()
	}

	return fmt.Errorf("failed to deliver event to %s; max tries reached: %d: %w", m.name, retries, err)
}

// ContentFormat describes the frame format written to the sink.
func (m *ForwardManager) ContentFormat() map[string]string {
	return map[string]string{
		"structured": "msgpack",
		"version":    "1",
	}
}

// Close shuts down the sink client. The Registry invokes Close while holding
// its lock, so the shutdown deadline is kept short.
func (m *ForwardManager) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.ShutdownTimeout)
	defer cancel()

	m.debug("shutting down the sink client for %s\n", m.name)

	if err := m.sink.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shut down the sink client for %s: %w", m.name, err)
	}
	return nil
}

func (m *ForwardManager) debug(format string, args ...any) {
	if !m.opts.Verbose {
		return
	}
	InternalLogger().Printf(format, args...)
}
