package chainhead

import (
	"runtime"
	"sync"

	"github.com/chainhead-go/subscriptions/common"
	"github.com/chainhead-go/subscriptions/log"
)

// BlockGuard is a scoped resource object returned by Registry.LockBlock.
// It holds a guard-local backend pin independent of its subscription's
// own pin, plus one operation permit, for the duration of a single RPC
// method invocation. Release (or the finalizer backstop) is the only
// place that balances the backend.PinBlock call made at construction.
type BlockGuard struct {
	hash        common.Hash
	withRuntime bool
	events      chan<- Event

	backend Backend
	op      *RegisteredOperation

	once     sync.Once
	released bool
	mu       sync.Mutex
}

func newBlockGuard(hash common.Hash, withRuntime bool, events chan<- Event, backend Backend, op *RegisteredOperation) *BlockGuard {
	g := &BlockGuard{
		hash:        hash,
		withRuntime: withRuntime,
		events:      events,
		backend:     backend,
		op:          op,
	}
	// Go has no destructors; a forgotten Release would otherwise leak a
	// backend pin and an operation permit forever. The finalizer is a
	// backstop, not the primary release path — callers are expected to
	// defer Release() explicitly (§9, Drop-based cleanup).
	runtime.SetFinalizer(g, func(g *BlockGuard) {
		g.mu.Lock()
		leaked := !g.released
		g.mu.Unlock()
		if leaked {
			log.Warn("chainhead: block guard released by finalizer, not by caller",
				"hash", hash)
			g.Release()
		}
	})
	return g
}

// Hash returns the guarded block's hash.
func (g *BlockGuard) Hash() common.Hash { return g.hash }

// WithRuntime reports whether this subscription's method handlers
// should execute against the guarded block's runtime.
func (g *BlockGuard) WithRuntime() bool { return g.withRuntime }

// Events returns the subscription's event channel, so a method handler
// holding the guard can emit follow-up events without a separate lookup.
func (g *BlockGuard) Events() chan<- Event { return g.events }

// Operation returns the operation permit bound to this guard, so a
// handler can check NumPermits or look the operation up by id elsewhere.
func (g *BlockGuard) Operation() *RegisteredOperation { return g.op }

// Release unpins the guard-local backend pin and releases the operation
// permit. It is idempotent and safe to call from a deferred statement.
func (g *BlockGuard) Release() {
	g.once.Do(func() {
		g.mu.Lock()
		g.released = true
		g.mu.Unlock()
		runtime.SetFinalizer(g, nil)

		g.backend.UnpinBlock(g.hash)
		g.op.Release()
	})
}
