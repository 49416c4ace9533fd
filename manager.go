package flume

// Manager is a shared connection/session to one downstream collector target.
// Concrete implementations wrap an external collector client; the Registry
// only ever holds managers behind this interface.
type Manager interface {

	// Name returns the unique name the manager was registered under.
	Name() string

	// Send delivers one enriched event to the collector. The delay
	// (milliseconds between attempts) and retries (maximum attempts) values
	// are advisory hints for the implementation's delivery policy; an
	// implementation that delegates pacing to its client may ignore them.
	//
	// Send is not serialized by the Registry lock, so implementations must
	// be safe for concurrent use by multiple appender goroutines.
	Send(e *Event, delay, retries int) error

	// ContentFormat describes the content format the manager produces, as
	// key/value pairs, or an empty map if unspecified.
	ContentFormat() map[string]string

	// Close releases the manager's connection state. The Registry invokes
	// Close while holding its lock, exactly once, when the last appender
	// using the manager releases it. Implementations must return quickly.
	Close() error
}

// ManagerFactory constructs the Manager for a name on first acquisition.
// Implementation specific configuration is carried by closure.
//
// The Registry invokes the factory while holding its lock, so a factory must
// not block indefinitely and must not call back into the same Registry; a
// reentrant Acquire would deadlock.
type ManagerFactory func(name string) (Manager, error)
