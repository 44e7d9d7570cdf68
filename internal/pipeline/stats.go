package pipeline

import "sync"

// BackendStats tracks rolling per-backend call outcomes, feeding the
// performance-based routing decision and the primary-unreachable check.
// Updates go through a single mutex: every routing decision reads and every
// call outcome writes, so the counter must not be ambient global state.
type BackendStats struct {
	mu       sync.Mutex
	counters map[string]*backendCounter
}

type backendCounter struct {
	successes   int
	failures    int
	consecFails int
}

// NewBackendStats creates an empty stats tracker.
func NewBackendStats() *BackendStats {
	return &BackendStats{counters: make(map[string]*backendCounter)}
}

// Record notes one call outcome for the named backend.
func (s *BackendStats) Record(backend string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[backend]
	if c == nil {
		c = &backendCounter{}
		s.counters[backend] = c
	}
	if ok {
		c.successes++
		c.consecFails = 0
	} else {
		c.failures++
		c.consecFails++
	}
}

// SuccessRate returns the backend's rolling success rate. ok is false when
// no history exists.
func (s *BackendStats) SuccessRate(backend string) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[backend]
	if c == nil || c.successes+c.failures == 0 {
		return 0, false
	}
	return float64(c.successes) / float64(c.successes+c.failures), true
}

// unreachableThreshold is the consecutive-failure count after which a
// backend is treated as unreachable for routing.
const unreachableThreshold = 3

// Unreachable reports whether the backend has failed enough times in a row
// to be skipped at routing time.
func (s *BackendStats) Unreachable(backend string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.counters[backend]
	return c != nil && c.consecFails >= unreachableThreshold
}
