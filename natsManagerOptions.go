package flume

import "time"

// NATSOptions are used to customize a NATSManager.
//
// # Invalid options are coerced
type NATSOptions struct {

	// Subject is the NATS subject events are published to. The default is
	// the manager name.
	Subject string

	// ConnectTimeout bounds the initial dial performed by the manager
	// factory. Factories run while the Registry lock is held, so this should
	// stay small. The default is 5 seconds.
	ConnectTimeout time.Duration

	// FlushTimeout bounds the final flush of pending publishes during Close.
	// The default is 5 seconds.
	FlushTimeout time.Duration

	// Verbose controls whether debug logs are written to the internal logger.
	Verbose bool
}

const (
	defaultConnectTimeout = time.Second * 5
	defaultFlushTimeout   = time.Second * 5
)

// DefaultNATSOptions returns *NATSOptions with all default values.
func DefaultNATSOptions() *NATSOptions {
	return &NATSOptions{
		ConnectTimeout: defaultConnectTimeout,
		FlushTimeout:   defaultFlushTimeout,
	}
}

// resolve ensures that all options have valid values.
func (o *NATSOptions) resolve() {

	// must be positive
	if o.ConnectTimeout < 1 {
		o.ConnectTimeout = defaultConnectTimeout
	}

	// must be positive
	if o.FlushTimeout < 1 {
		o.FlushTimeout = defaultFlushTimeout
	}
}
