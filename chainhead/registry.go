package chainhead

import (
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/chainhead-go/subscriptions/common"
	"github.com/chainhead-go/subscriptions/common/mclock"
	"github.com/chainhead-go/subscriptions/log"
)

// Config carries the registry's tunable limits (§6, Configuration).
type Config struct {
	// GlobalMaxPinnedBlocks is the hard cap on distinct hashes pinned
	// across all subscriptions.
	GlobalMaxPinnedBlocks int
	// LocalMaxPinDuration is the age threshold for stale-subscription
	// eviction in pass 1 of ensureBlockSpaceLocked.
	LocalMaxPinDuration time.Duration
	// MaxOngoingOperations is the per-subscription concurrent operation
	// cap.
	MaxOngoingOperations int
}

// InsertedSubscriptionData is returned by InsertSubscription: the
// receiver halves of the one-shot stop signal and the event channel.
type InsertedSubscriptionData struct {
	StopSignal <-chan struct{}
	Events     <-chan Event
}

type globalBlockEntry struct {
	refcount int
}

// Registry is the subscriptions registry of §4.4, the heart of the core.
// A single mutex guards every public entry point; every method body below
// is synchronous and non-suspending while holding it, per §5.
type Registry struct {
	mu sync.Mutex

	globalBlocks map[common.Hash]*globalBlockEntry
	subs         map[string]*subscriptionState

	cfg     Config
	backend Backend
	clock   mclock.Clock
	metrics *metrics
	log     log.Logger
}

// NewRegistry constructs a Registry. reg may be nil, in which case
// metrics calls are no-ops. clock defaults to mclock.System{} if nil.
func NewRegistry(cfg Config, backend Backend, clock mclock.Clock, reg prometheus.Registerer) *Registry {
	if clock == nil {
		clock = mclock.System{}
	}
	return &Registry{
		globalBlocks: make(map[common.Hash]*globalBlockEntry),
		subs:         make(map[string]*subscriptionState),
		cfg:          cfg,
		backend:      backend,
		clock:        clock,
		metrics:      newMetrics(reg),
		log:          log.Root(),
	}
}

// InsertSubscription implements §4.4.1. It returns nil if subID is
// already registered.
func (r *Registry) InsertSubscription(subID string, withRuntime bool) *InsertedSubscriptionData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[subID]; exists {
		return nil
	}
	state := newSubscriptionState(withRuntime, r.cfg.MaxOngoingOperations, r.clock)
	r.subs[subID] = state
	r.metrics.setLiveSubscriptions(len(r.subs))

	return &InsertedSubscriptionData{
		StopSignal: state.stopCh,
		Events:     state.events,
	}
}

// RemoveSubscription implements §4.4.2: the single site that unwinds a
// subscription's global refcounts.
func (r *Registry) RemoveSubscription(subID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.removeSubscriptionLocked(subID)
}

func (r *Registry) removeSubscriptionLocked(subID string) {
	state, ok := r.subs[subID]
	if !ok {
		return
	}
	delete(r.subs, subID)
	state.stop()
	for _, h := range state.liveHashes() {
		r.globalUnregisterBlockLocked(h)
	}
	r.metrics.setLiveSubscriptions(len(r.subs))
	r.metrics.setPinnedBlocks(len(r.globalBlocks))
}

// StopAllSubscriptions terminates every subscription currently
// registered.
func (r *Registry) StopAllSubscriptions() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id := range r.subs {
		r.removeSubscriptionLocked(id)
	}
}

// PinBlock implements §4.4.3.
func (r *Registry) PinBlock(subID string, hash common.Hash) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[subID]
	if !ok {
		return false, ErrSubscriptionAbsent
	}

	if !sub.registerBlock(hash) {
		// Second announcement: already globally accounted for, no
		// capacity check, no backend call.
		return false, nil
	}

	if _, alreadyGlobal := r.globalBlocks[hash]; !alreadyGlobal {
		terminated := r.ensureBlockSpaceLocked(subID)
		if terminated {
			return false, ErrExceededLimits
		}
	}

	if err := r.globalRegisterBlockLocked(hash); err != nil {
		return false, err
	}
	return true, nil
}

// ensureBlockSpaceLocked implements §4.4.4. It must be called with r.mu
// held, and reports whether requestSubID itself was terminated by
// eviction.
func (r *Registry) ensureBlockSpaceLocked(requestSubID string) bool {
	if len(r.globalBlocks) < r.cfg.GlobalMaxPinnedBlocks {
		return false
	}

	now := r.clock.Now()
	maxAge := r.cfg.LocalMaxPinDuration

	// Pass 1: age-based eviction.
	var stale []string
	for id, sub := range r.subs {
		oldest := sub.findOldestBlockTimestamp()
		age := now.Sub(oldest)
		if age > maxAge || oldest > now {
			stale = append(stale, id)
		}
	}
	requesterEvicted := false
	for _, id := range stale {
		if id == requestSubID {
			requesterEvicted = true
		}
		r.removeSubscriptionLocked(id)
		r.metrics.addEvicted(1)
		r.log.Warn("chainhead: evicting stale subscription", "sub", id)
	}
	if len(r.globalBlocks) < r.cfg.GlobalMaxPinnedBlocks {
		return requesterEvicted
	}

	// Pass 2: last resort, remove every remaining subscription. Carry
	// requesterEvicted forward from pass 1 instead of resetting it here:
	// the requester may already have been removed in pass 1 without that
	// alone freeing enough space (its blocks may be shared with other
	// live subscriptions), in which case pass 2 must still report the
	// requester as terminated even though it no longer appears in subs.
	var remaining []string
	for id := range r.subs {
		remaining = append(remaining, id)
	}
	for _, id := range remaining {
		if id == requestSubID {
			requesterEvicted = true
		}
		r.removeSubscriptionLocked(id)
		r.metrics.addEvicted(1)
		r.log.Warn("chainhead: last-resort eviction of subscription", "sub", id)
	}
	return requesterEvicted
}

// globalRegisterBlockLocked implements §4.4.5.
func (r *Registry) globalRegisterBlockLocked(hash common.Hash) error {
	if entry, ok := r.globalBlocks[hash]; ok {
		entry.refcount++
		return nil
	}
	if err := r.backend.PinBlock(hash); err != nil {
		return newCustomError(err)
	}
	r.globalBlocks[hash] = &globalBlockEntry{refcount: 1}
	r.metrics.setPinnedBlocks(len(r.globalBlocks))
	return nil
}

// globalUnregisterBlockLocked implements §4.4.6.
func (r *Registry) globalUnregisterBlockLocked(hash common.Hash) {
	entry, ok := r.globalBlocks[hash]
	if !ok {
		return
	}
	if entry.refcount == 1 {
		r.backend.UnpinBlock(hash)
		delete(r.globalBlocks, hash)
		r.metrics.setPinnedBlocks(len(r.globalBlocks))
		return
	}
	entry.refcount--
}

// UnpinBlocks implements §4.4.7.
func (r *Registry) UnpinBlocks(subID string, hashes []common.Hash) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := mapset.NewThreadUnsafeSet[common.Hash]()
	for _, h := range hashes {
		if seen.Contains(h) {
			return ErrDuplicateHashes
		}
		seen.Add(h)
	}

	sub, ok := r.subs[subID]
	if !ok {
		return ErrSubscriptionAbsent
	}

	for _, h := range hashes {
		if !sub.containsBlock(h) {
			return ErrBlockHashAbsent
		}
	}

	for _, h := range hashes {
		sub.unregisterBlock(h)
	}
	for _, h := range hashes {
		r.globalUnregisterBlockLocked(h)
	}
	r.metrics.setPinnedBlocks(len(r.globalBlocks))
	return nil
}

// LockBlock implements §4.4.8.
func (r *Registry) LockBlock(subID string, hash common.Hash, toReserve int) (*BlockGuard, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[subID]
	if !ok {
		return nil, ErrSubscriptionAbsent
	}
	if !sub.containsBlock(hash) {
		return nil, ErrBlockHashAbsent
	}

	op := sub.registerOperation(toReserve)
	if op == nil {
		return nil, ErrExceededLimits
	}

	// Guard-local pin, independent of the subscription's existing pin,
	// so a concurrently torn-down subscription can't pull the block out
	// from under an executing method (§4.4.8, §9).
	if err := r.backend.PinBlock(hash); err != nil {
		op.Release()
		return nil, newCustomError(err)
	}

	return newBlockGuard(hash, sub.withRuntime, sub.events, r.backend, op), nil
}

// GetOperation implements §4.4.9.
func (r *Registry) GetOperation(subID, opID string) *OperationState {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, ok := r.subs[subID]
	if !ok {
		return nil
	}
	return sub.getOperation(opID)
}

// GlobalPinnedBlockCount reports |global_blocks|, used by tests asserting
// the quantified invariants in §8.
func (r *Registry) GlobalPinnedBlockCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.globalBlocks)
}

// GlobalRefcount reports global_blocks[h], or 0 if h is untracked.
func (r *Registry) GlobalRefcount(hash common.Hash) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.globalBlocks[hash]
	if !ok {
		return 0
	}
	return entry.refcount
}

// HasSubscription reports whether subID is currently registered.
func (r *Registry) HasSubscription(subID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.subs[subID]
	return ok
}
