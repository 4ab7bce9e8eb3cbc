package chainhead

import "sync"

// operationLimiter bounds the number of concurrent operations a single
// subscription may have in flight. Unlike golang.org/x/sync/semaphore,
// whose TryAcquire is all-or-nothing, this limiter can hand out fewer
// permits than requested (§4.2) so a caller can degrade to a smaller
// batch instead of being rejected outright.
type operationLimiter struct {
	mu        sync.Mutex
	available int
}

func newOperationLimiter(max int) *operationLimiter {
	return &operationLimiter{available: max}
}

// reserveAtMost acquires k = min(available, n) permits, k >= 1, and
// returns a Permit that releases all k on Release. It returns nil if no
// permit is currently available. This never blocks.
func (l *operationLimiter) reserveAtMost(n int) *Permit {
	l.mu.Lock()
	defer l.mu.Unlock()

	k := n
	if l.available < k {
		k = l.available
	}
	if k <= 0 {
		return nil
	}
	l.available -= k
	return &Permit{limiter: l, n: k}
}

func (l *operationLimiter) release(n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.available += n
}

// Permit represents a reservation of one or more concurrency slots. It
// must be released exactly once; Release is idempotent so it is safe to
// call from both an explicit defer and a finalizer backstop.
type Permit struct {
	limiter *operationLimiter
	n       int
	once    sync.Once
}

// NumPermits reports how many slots this permit holds.
func (p *Permit) NumPermits() int {
	return p.n
}

// Release returns the permit's slots to the limiter. It is a no-op on
// subsequent calls.
func (p *Permit) Release() {
	p.once.Do(func() {
		p.limiter.release(p.n)
	})
}
