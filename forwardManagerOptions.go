package flume

import "time"

// ForwardOptions are used to customize a ForwardManager.
//
// # Invalid options are coerced
type ForwardOptions struct {

	// RetryDelay is the initial pause between delivery attempts, used when
	// the caller passes a delay hint <= 0 to Send. Later pauses grow
	// exponentially, capped at 20 seconds. The default is 500ms.
	RetryDelay time.Duration

	// MaxSendTries limits the number of delivery attempts per event, used
	// when the caller passes a retries hint <= 0 to Send. This must be > 0.
	// The default is 3.
	MaxSendTries int

	// NewBufferCap sets the capacity, in bytes, for newly created encoder
	// buffers; see EncoderOptions. The default is 1KiB.
	NewBufferCap int

	// MaxBufferCap sets the buffer capacity beyond which encoders are not
	// pooled; see EncoderOptions. The default is 8KiB.
	MaxBufferCap int

	// ShutdownTimeout bounds the sink client shutdown during Close. Close
	// runs while the Registry lock is held, so this should stay small. The
	// default is 5 seconds.
	ShutdownTimeout time.Duration

	// Verbose controls whether debug logs are written to the internal logger.
	Verbose bool
}

const (
	defaultRetryDelay      = time.Millisecond * 500
	defaultMaxSendTries    = 3
	defaultShutdownTimeout = time.Second * 5
	maxRetryPause          = time.Second * 20
)

// DefaultForwardOptions returns *ForwardOptions with all default values.
func DefaultForwardOptions() *ForwardOptions {
	return &ForwardOptions{
		RetryDelay:      defaultRetryDelay,
		MaxSendTries:    defaultMaxSendTries,
		NewBufferCap:    defaultNewBufferCap,
		MaxBufferCap:    defaultMaxBufferCap,
		ShutdownTimeout: defaultShutdownTimeout,
	}
}

// resolve ensures that all options have valid values.
func (o *ForwardOptions) resolve() {

	// must be positive
	if o.RetryDelay < 1 {
		o.RetryDelay = defaultRetryDelay
	}

	// must be positive
	if o.MaxSendTries < 1 {
		o.MaxSendTries = defaultMaxSendTries
	}

	// buffer caps share the encoder pool constraints
	o.NewBufferCap = max(o.NewBufferCap, minBufferCap)
	o.MaxBufferCap = max(o.NewBufferCap, o.MaxBufferCap)

	// must be positive
	if o.ShutdownTimeout < 1 {
		o.ShutdownTimeout = defaultShutdownTimeout
	}
}
