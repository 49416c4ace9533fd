package flume

import (
	"bytes"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
)

// A forward frame is the outer msgpack array [name, timestamp, headers, body]
// written for each event; see ForwardManager.
const forwardFrameLen = 4

// EncoderPool defines a shared *Encoder pool, used to minimize heap
// allocations when serializing events.
type EncoderPool struct {
	p sync.Pool
	*EncoderOptions
	preludeLen int
}

// NewEncoderPool creates a shared *Encoder pool that returns Encoders with
// the frame prelude, including the outer msgpack array header and the manager
// name, pre-encoded.
func NewEncoderPool(name string, opts *EncoderOptions) *EncoderPool {
	if opts == nil {
		opts = DefaultEncoderOptions()
	} else {
		opts.resolve()
	}

	ep := &EncoderPool{EncoderOptions: opts}

	ep.p = sync.Pool{
		New: func() any {
			enc := NewEncoder(opts.NewBufferCap)
			enc.p = ep

			// encode the prelude
			if err := enc.EncodeArrayLen(forwardFrameLen); err != nil {
				InternalLogger().Printf("failed to encode NewEncoder frame length: %v", err)
			}
			if err := enc.EncodeString(name); err != nil {
				InternalLogger().Printf("failed to encode NewEncoder manager name: %v", err)
			}
			ep.preludeLen = enc.Len()

			return enc
		},
	}

	return ep
}

// Get returns an Encoder with the prelude pre-rendered.
func (p *EncoderPool) Get() *Encoder {
	return p.p.Get().(*Encoder)
}

// Put resets an Encoder and returns it to the shared pool.
func (p *EncoderPool) Put(e *Encoder) {

	// drop if the buffer got too large
	if e.Buffer.Cap() > p.MaxBufferCap {
		return
	}

	// reset for the next usage
	e.Buffer.Truncate(p.preludeLen)
	e.Encoder.Reset(e.Buffer)

	// add back to the sync.Pool
	p.p.Put(e)
}

// Encoder provides a msgpack encoder and its underlying bytes.Buffer.
type Encoder struct {
	*bytes.Buffer
	*msgpack.Encoder
	p *EncoderPool
}

// NewEncoder returns a newly allocated Encoder.
func NewEncoder(bufferCap int) *Encoder {
	buf := bytes.NewBuffer(make([]byte, 0, bufferCap))
	return &Encoder{
		Buffer:  buf,
		Encoder: msgpack.NewEncoder(buf),
	}
}

// Free returns the encoder to the shared pool after eagerly resetting it.
func (e *Encoder) Free() {
	if e.p != nil {
		e.p.Put(e)
	}
}
