package mclock

import (
	"sync"
	"time"
)

// Simulated implements Clock for tests. The zero value is ready to use and
// starts at absolute time zero; advance it explicitly with Run instead of
// sleeping real wall-clock time.
type Simulated struct {
	mu  sync.Mutex
	now AbsTime
}

func (s *Simulated) Now() AbsTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Run advances the simulated clock by d.
func (s *Simulated) Run(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now += AbsTime(d)
}

// Sleep blocks until the simulated clock is advanced so that at least d has
// passed since the call. Intended for tests that exercise a goroutine racing
// against Run from the test's main goroutine; chainhead itself never calls
// Sleep on the registry's clock.
func (s *Simulated) Sleep(d time.Duration) {
	target := s.Now().Add(d)
	for s.Now() < target {
		time.Sleep(time.Millisecond)
	}
}
