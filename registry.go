package flume

import (
	"errors"
	"fmt"
	"sync"
)

// registration pairs a Manager with the number of appenders using it. The
// count is only ever touched under the Registry lock.
type registration struct {
	manager Manager
	count   int
}

// Registry is a name-keyed table of shared Managers. Appenders acquire a
// manager by name, creating it through a factory on first use, and release it
// on shutdown; the registry closes a manager exactly when its last user
// releases it. Two appenders configured with the same name intentionally
// share one manager, and with it one collector connection.
//
// A single mutex guards the map and the reference counts instead of a
// sync.Map, because Release has to remove the manager from the map and close
// it as one atomic step. Otherwise a release could race a concurrent Acquire
// of the same name and resurrect a manager mid teardown, or two releases
// could both observe a zero count and close the manager twice.
//
// A Registry is an explicitly owned value. Construct one with NewRegistry and
// pass it to whatever needs it; typically one per process.
type Registry struct {
	mu       sync.Mutex
	managers map[string]*registration
}

// NewRegistry returns an empty Registry ready for use.
func NewRegistry() *Registry {
	return &Registry{managers: make(map[string]*registration)}
}

// Acquire returns the Manager registered under name, constructing it with
// factory if it does not exist yet, and increments its reference count. Every
// successful Acquire must be paired with one Release.
//
// The factory runs while the registry lock is held; see ManagerFactory for
// the constraints that places on it. A factory that returns neither a
// manager nor an error is a configuration error, and the appender being
// started must not proceed.
func (r *Registry) Acquire(name string, factory ManagerFactory) (Manager, error) {

	if len(name) == 0 {
		return nil, errors.New("valid manager name required")
	}
	if factory == nil {
		return nil, errors.New("valid manager factory required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	reg, ok := r.managers[name]
	if !ok {
		m, err := factory(name)
		if err != nil {
			return nil, fmt.Errorf("failed to create manager %q: %w", name, err)
		}
		if m == nil {
			return nil, fmt.Errorf("failed to create manager %q: factory returned no manager", name)
		}
		reg = &registration{manager: m}
		r.managers[name] = reg
	}
	reg.count++

	return reg.manager, nil
}

// Has reports whether a Manager is currently registered under name.
func (r *Registry) Has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.managers[name]
	return ok
}

// Release signals that one appender no longer needs m. When the last
// outstanding acquisition is released, the manager is removed from the
// registry and closed, still under the registry lock, and any Close error is
// returned. Releasing a manager that is no longer registered is a no-op.
func (r *Registry) Release(m Manager) error {

	if m == nil {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	name := m.Name()
	reg, ok := r.managers[name]
	if !ok {
		return nil
	}

	reg.count--
	if reg.count > 0 {
		return nil
	}

	delete(r.managers, name)
	if err := reg.manager.Close(); err != nil {
		return fmt.Errorf("failed to close manager %q: %w", name, err)
	}

	return nil
}

// refs reports the number of outstanding acquisitions for name.
func (r *Registry) refs(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if reg, ok := r.managers[name]; ok {
		return reg.count
	}
	return 0
}
