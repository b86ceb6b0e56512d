package woincui

import "sync"

// handlerRegistry is a thread-safe list of the two observer categories the
// library supports. Registration is by identity; deregistering a handler
// that is not present is a no-op. Fan-out holds the registry's lock for the
// duration of the iteration, so callbacks must not re-enter the registry
// (spec.md §4.5) — mirrors original_source/libui/src/handler_registry.cc's
// WOINC_LOCK_GUARD-held for_* iterators.
type handlerRegistry struct {
	mu sync.Mutex

	hostHandlers     []HostHandler
	periodicHandlers []PeriodicTaskHandler
}

func newHandlerRegistry() *handlerRegistry {
	return &handlerRegistry{}
}

func (r *handlerRegistry) registerHostHandler(h HostHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hostHandlers = append(r.hostHandlers, h)
}

func (r *handlerRegistry) deregisterHostHandler(h HostHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.hostHandlers {
		if existing == h {
			r.hostHandlers = append(r.hostHandlers[:i], r.hostHandlers[i+1:]...)
			return
		}
	}
}

func (r *handlerRegistry) registerPeriodicTaskHandler(h PeriodicTaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.periodicHandlers = append(r.periodicHandlers, h)
}

func (r *handlerRegistry) deregisterPeriodicTaskHandler(h PeriodicTaskHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.periodicHandlers {
		if existing == h {
			r.periodicHandlers = append(r.periodicHandlers[:i], r.periodicHandlers[i+1:]...)
			return
		}
	}
}

// forHostHandler calls f for every registered HostHandler while holding the
// registry's lock.
func (r *handlerRegistry) forHostHandler(f func(HostHandler)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.hostHandlers {
		f(h)
	}
}

// forPeriodicTaskHandler calls f for every registered PeriodicTaskHandler
// while holding the registry's lock.
func (r *handlerRegistry) forPeriodicTaskHandler(f func(PeriodicTaskHandler)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, h := range r.periodicHandlers {
		f(h)
	}
}
