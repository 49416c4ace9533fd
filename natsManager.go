package flume

import (
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// natsConn is the subset of *nats.Conn the manager uses; narrowed so tests
// can substitute a capturing fake.
type natsConn interface {
	PublishMsg(msg *nats.Msg) error
	FlushTimeout(timeout time.Duration) error
	Close()
}

// NATSManager is a Manager that publishes enriched events to a NATS subject.
// The event headers travel as NATS message headers and the body as the
// message payload, so collectors on the other side of the broker see the
// same enriched shape the ForwardManager would hand a Sink.
//
// All connection lifecycle concerns, including reconnect and the buffering
// of publishes while disconnected, are delegated to the NATS client.
type NATSManager struct {
	opts    *NATSOptions
	name    string
	subject string
	nc      natsConn
}

var _ Manager = (*NATSManager)(nil)

// NewNATSManagerFactory returns a ManagerFactory that dials the NATS server
// at url and builds NATSManagers over the resulting connection, for use with
// Registry.Acquire.
//
// The factory runs while the Registry lock is held, so the dial is bounded by
// the ConnectTimeout option rather than retried indefinitely.
func NewNATSManagerFactory(url string, opts *NATSOptions) ManagerFactory {
	if opts == nil {
		opts = DefaultNATSOptions()
	} else {
		opts.resolve()
	}

	return func(name string) (Manager, error) {
		nc, err := nats.Connect(url,
			nats.Name(name),
			nats.Timeout(opts.ConnectTimeout),
			nats.RetryOnFailedConnect(false),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
		}
		return newNATSManager(name, nc, opts), nil
	}
}

func newNATSManager(name string, nc natsConn, opts *NATSOptions) *NATSManager {
	subject := opts.Subject
	if len(subject) == 0 {
		subject = name
	}
	return &NATSManager{
		opts:    opts,
		name:    name,
		subject: subject,
		nc:      nc,
	}
}

// Name returns the name the manager was registered under.
func (m *NATSManager) Name() string { return m.name }

// Send publishes the event to the manager's subject. The delay and retries
// hints are ignored; delivery pacing is delegated to the NATS client, which
// buffers publishes across reconnects.
func (m *NATSManager) Send(e *Event, _, _ int) error {

	if e == nil {
		return errors.New("valid event required")
	}

	msg := nats.NewMsg(m.subject)
	for k, v := range e.Headers() {
		msg.Header.Set(k, v)
	}
	msg.Data = e.Body()

	if err := m.nc.PublishMsg(msg); err != nil {
		return fmt.Errorf("failed to publish event to %s: %w", m.subject, err)
	}

	m.debug("published event to subject %s\n", m.subject)

	return nil
}

// ContentFormat describes the message shape published to the broker.
func (m *NATSManager) ContentFormat() map[string]string {
	return map[string]string{
		"structured": "nats-msg",
		"subject":    m.subject,
	}
}

// Close flushes pending publishes and closes the connection. The Registry
// invokes Close while holding its lock, so the flush deadline is kept short.
func (m *NATSManager) Close() error {
	defer m.nc.Close()

	m.debug("flushing and closing the NATS connection for %s\n", m.name)

	if err := m.nc.FlushTimeout(m.opts.FlushTimeout); err != nil {
		return fmt.Errorf("failed to flush pending events for %s: %w", m.name, err)
	}
	return nil
}

func (m *NATSManager) debug(format string, args ...any) {
	if !m.opts.Verbose {
		return
	}
	InternalLogger().Printf(format, args...)
}
