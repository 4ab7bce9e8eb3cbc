package chainhead

import (
	"sync"

	"github.com/chainhead-go/subscriptions/common"
	"github.com/chainhead-go/subscriptions/common/mclock"
)

// eventChannelCapacity is the fixed buffer size for every subscription's
// event channel (§6, Configuration).
const eventChannelCapacity = 16

// blockEntry is one (subscription, block) tracking record.
type blockEntry struct {
	state     BlockState
	insertedAt mclock.AbsTime
}

// Event is a follow-up notification a method handler emits to the
// client's stream after the initial block announcement, e.g. the result
// of an RPC call made against a pinned block.
type Event struct {
	SubscriptionID string
	Hash           common.Hash
	Payload        any
}

// subscriptionState is the per-subscription state described in §4.3: the
// blocks map, the operations ledger, the stop signal, and the event
// sender.
type subscriptionState struct {
	withRuntime bool

	mu          sync.Mutex
	stopOnce    sync.Once
	stopCh      chan struct{}
	events      chan Event
	blocks      map[common.Hash]*blockEntry
	ledger      *operationLedger
	clock       mclock.Clock
}

func newSubscriptionState(withRuntime bool, maxOngoingOperations int, clock mclock.Clock) *subscriptionState {
	return &subscriptionState{
		withRuntime: withRuntime,
		stopCh:      make(chan struct{}),
		events:      make(chan Event, eventChannelCapacity),
		blocks:      make(map[common.Hash]*blockEntry),
		ledger:      newOperationLedger(maxOngoingOperations),
		clock:       clock,
	}
}

// registerBlock implements §4.3's register_block. It reports whether the
// global tracker needs to be incremented (true on first announcement).
func (s *subscriptionState) registerBlock(hash common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.blocks[hash]
	if !ok {
		s.blocks[hash] = &blockEntry{state: Registered, insertedAt: s.clock.Now()}
		return true
	}
	entry.state = entry.state.advanceRegister()
	if entry.state == FullyUnpinned {
		delete(s.blocks, hash)
	}
	return false
}

// unregisterBlock implements §4.3's unregister_block.
func (s *subscriptionState) unregisterBlock(hash common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.blocks[hash]
	if !ok {
		return false
	}
	if entry.state.wasUnpinned() {
		return false
	}
	entry.state = entry.state.advanceUnpin()
	if entry.state == FullyUnpinned {
		delete(s.blocks, hash)
	}
	return true
}

// containsBlock reports whether hash has a live (non-unpinned) entry.
func (s *subscriptionState) containsBlock(hash common.Hash) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.blocks[hash]
	return ok && !entry.state.wasUnpinned()
}

// liveHashes returns every hash currently tracked in a state that has not
// been unpinned (Registered or FullyRegistered), used by
// remove_subscription to unwind global refcounts.
func (s *subscriptionState) liveHashes() []common.Hash {
	s.mu.Lock()
	defer s.mu.Unlock()
	hashes := make([]common.Hash, 0, len(s.blocks))
	for h, entry := range s.blocks {
		if !entry.state.wasUnpinned() {
			hashes = append(hashes, h)
		}
	}
	return hashes
}

// findOldestBlockTimestamp returns the minimum insertion timestamp across
// all tracked blocks, or now if the subscription tracks nothing. This is
// a linear scan, called only during eviction (§4.4.4) and expected to be
// rare.
func (s *subscriptionState) findOldestBlockTimestamp() mclock.AbsTime {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.blocks) == 0 {
		return s.clock.Now()
	}
	oldest := mclock.AbsTime(1<<63 - 1)
	for _, entry := range s.blocks {
		if entry.insertedAt < oldest {
			oldest = entry.insertedAt
		}
	}
	return oldest
}

// stop sends the one-shot stop signal if it has not already been sent.
// Closing the channel is itself the signal; send failure (no one ever
// listening) is not possible with a close-based design, so unlike the
// Rust original's one-shot sender, there is no "ignore send failure"
// branch to write.
func (s *subscriptionState) stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

// registerOperation delegates to the ledger (§4.3).
func (s *subscriptionState) registerOperation(n int) *RegisteredOperation {
	return s.ledger.register(n)
}

// getOperation delegates to the ledger (§4.3).
func (s *subscriptionState) getOperation(id string) *OperationState {
	return s.ledger.get(id)
}
