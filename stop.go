package softfm

import "sync/atomic"

// Stop is a cancellation token shared by the pipeline stages. Once
// requested, it stays requested.
type Stop struct {
	requested atomic.Bool
}

// Request asks all stages to stop. It is safe to call from any goroutine
// any number of times.
func (s *Stop) Request() {
	s.requested.Store(true)
}

// Requested returns true if stop was requested.
func (s *Stop) Requested() bool {
	return s.requested.Load()
}
