// Package lifecycle holds the process-wide shutdown signal.
package lifecycle

import (
	"sync"
	"sync/atomic"
)

// Shutdowner requests an orderly process shutdown.
type Shutdowner interface {
	Shutdown(reason string)
}

// Signal is a single-writer, multi-reader shutdown broadcast. Any goroutine
// may call Shutdown; only the first call runs the registered hooks and closes
// Done.
type Signal struct {
	once   sync.Once
	done   chan struct{}
	mu     sync.Mutex
	hooks  []func()
	reason atomic.Value
}

// NewSignal creates an untriggered shutdown signal.
func NewSignal() *Signal {
	return &Signal{done: make(chan struct{})}
}

// OnShutdown registers a hook that runs once when the signal fires, in
// registration order. Hooks registered after the signal fired never run.
func (s *Signal) OnShutdown(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hooks = append(s.hooks, fn)
}

// Shutdown fires the signal. Subsequent calls are no-ops.
func (s *Signal) Shutdown(reason string) {
	s.once.Do(func() {
		s.reason.Store(reason)

		s.mu.Lock()
		hooks := s.hooks
		s.hooks = nil
		s.mu.Unlock()

		for _, hook := range hooks {
			hook()
		}
		close(s.done)
	})
}

// Done is closed after the shutdown hooks have run.
func (s *Signal) Done() <-chan struct{} {
	return s.done
}

// Triggered reports whether Shutdown has been called.
func (s *Signal) Triggered() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// Reason returns the reason passed to the first Shutdown call.
func (s *Signal) Reason() string {
	r, _ := s.reason.Load().(string)
	return r
}
