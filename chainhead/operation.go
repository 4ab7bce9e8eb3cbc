package chainhead

import (
	"strconv"
	"sync"
)

// stopHandle is the cancellation side-channel for one in-flight operation.
// Closing ch wakes any goroutine waiting on Stopped(); it is safe to close
// at most once.
type stopHandle struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

func newStopHandle() *stopHandle {
	return &stopHandle{ch: make(chan struct{})}
}

func (h *stopHandle) stop() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	close(h.ch)
}

// Stopped returns a channel that is closed once stop has been requested,
// either by OperationState.Stop or by the owning RegisteredOperation
// dropping (e.g. its BlockGuard being released).
func (h *stopHandle) Stopped() <-chan struct{} {
	return h.ch
}

func (h *stopHandle) isStopped() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// RegisteredOperation is returned by registering an operation against a
// subscription's ledger. The caller is expected to Release it (typically
// via a BlockGuard) exactly once; Release both returns the permit and
// removes the ledger entry so a later GetOperation sees it as gone.
type RegisteredOperation struct {
	ID     string
	permit *Permit
	handle *stopHandle
	ledger *operationLedger
	once   sync.Once
}

// NumPermits reports how many concurrency slots this operation reserved.
func (r *RegisteredOperation) NumPermits() int {
	return r.permit.NumPermits()
}

// Release returns the permit to the subscription's limiter, removes the
// operation from the ledger, and closes the stop handle so any external
// holder of an OperationState waiting on Done() wakes up. Idempotent.
func (r *RegisteredOperation) Release() {
	r.once.Do(func() {
		r.ledger.remove(r.ID)
		r.handle.stop()
		r.permit.Release()
	})
}

// OperationState is the external, id-addressed handle returned by
// GetOperation, letting a "stopOperation"-style RPC cancel work that may
// be parked elsewhere.
type OperationState struct {
	id     string
	handle *stopHandle
	ledger *operationLedger
}

// Stop cancels the operation if it has not already been stopped or
// removed: it closes the handle's channel and drops the ledger entry, so
// a subsequent GetOperation for the same id returns nil. It is safe to
// call more than once.
func (s *OperationState) Stop() {
	if s.handle.isStopped() {
		return
	}
	s.ledger.remove(s.id)
	s.handle.stop()
}

// Stopped reports whether the operation has stopped, either because Stop
// was called or because the underlying RegisteredOperation was released.
func (s *OperationState) Stopped() bool {
	return s.handle.isStopped()
}

// Done returns a channel that is closed once the operation stops, either
// because Stop was called on this OperationState or because the
// underlying RegisteredOperation was released (its BlockGuard dropped).
// This is the suspension point external id-holders await, matching the
// original's StopHandle::stopped().
func (s *OperationState) Done() <-chan struct{} {
	return s.handle.Stopped()
}

// operationLedger is the per-subscription bookkeeping described in §4.3:
// a monotonic id counter, a concurrency limiter, and a map from operation
// id to its cancellation handle.
type operationLedger struct {
	mu      sync.Mutex
	nextID  uint64
	limiter *operationLimiter
	ops     map[string]*stopHandle
}

func newOperationLedger(maxOngoingOperations int) *operationLedger {
	return &operationLedger{
		limiter: newOperationLimiter(maxOngoingOperations),
		ops:     make(map[string]*stopHandle),
	}
}

// register reserves up to n concurrency permits and, if any were granted,
// mints a new operation id and ledger entry. It returns nil if the
// limiter had no capacity at all.
func (l *operationLedger) register(n int) *RegisteredOperation {
	permit := l.limiter.reserveAtMost(n)
	if permit == nil {
		return nil
	}

	l.mu.Lock()
	id := strconv.FormatUint(l.nextID, 10)
	l.nextID++
	handle := newStopHandle()
	l.ops[id] = handle
	l.mu.Unlock()

	return &RegisteredOperation{ID: id, permit: permit, handle: handle, ledger: l}
}

// get returns the OperationState for id, or nil if no such operation is
// currently registered.
func (l *operationLedger) get(id string) *OperationState {
	l.mu.Lock()
	defer l.mu.Unlock()
	h, ok := l.ops[id]
	if !ok {
		return nil
	}
	return &OperationState{id: id, handle: h, ledger: l}
}

// remove drops the ledger entry for id, if present. It does not itself
// release the operation's permit; callers release the permit separately
// (RegisteredOperation.Release does both).
func (l *operationLedger) remove(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.ops, id)
}

// outstanding reports the number of ids currently tracked, used by tests
// asserting invariant 5 (outstanding ids <= max_ongoing_operations).
func (l *operationLedger) outstanding() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.ops)
}
