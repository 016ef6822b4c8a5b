package spin

import (
	"sync"
	"time"
)

type pendingKey struct {
	sessionID string
	spinID    string
}

// Scheduler holds deferred spin completions keyed by (session, spin).
// A fired task that no longer matches the session's current spin must be a
// no-op; the caller's identity check enforces that.
type Scheduler struct {
	mu      sync.Mutex
	pending map[pendingKey]*time.Timer
	stopped bool
}

func NewScheduler() *Scheduler {
	return &Scheduler{
		pending: make(map[pendingKey]*time.Timer),
	}
}

func (s *Scheduler) Schedule(sessionID, spinID string, delay time.Duration, fn func()) {
	key := pendingKey{sessionID: sessionID, spinID: spinID}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	if old, ok := s.pending[key]; ok {
		old.Stop()
	}

	s.pending[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.pending, key)
		stopped := s.stopped
		s.mu.Unlock()

		if !stopped {
			fn()
		}
	})
}

// Cancel drops a pending completion if it has not fired yet.
func (s *Scheduler) Cancel(sessionID, spinID string) bool {
	key := pendingKey{sessionID: sessionID, spinID: spinID}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.pending[key]
	if !ok {
		return false
	}
	delete(s.pending, key)
	return t.Stop()
}

func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	for key, t := range s.pending {
		t.Stop()
		delete(s.pending, key)
	}
}
