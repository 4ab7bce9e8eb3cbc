package chainhead

import (
	"errors"
	"sync"

	"github.com/chainhead-go/subscriptions/common"
)

// errBackendPinFailed is used only by the test backend to simulate a
// failing PinBlock call.
var errBackendPinFailed = errors.New("fake backend: pin failed")

// fakeBackend is an in-memory Backend used by the test suite. It tracks
// how many times each hash is currently pinned so tests can assert
// invariant 2 (exactly one outstanding backend pin per tracked hash,
// excluding guard-local pins).
type fakeBackend struct {
	mu      sync.Mutex
	pins    map[common.Hash]int
	failing map[common.Hash]bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		pins:    make(map[common.Hash]int),
		failing: make(map[common.Hash]bool),
	}
}

func (b *fakeBackend) PinBlock(hash common.Hash) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failing[hash] {
		return errBackendPinFailed
	}
	b.pins[hash]++
	return nil
}

func (b *fakeBackend) UnpinBlock(hash common.Hash) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.pins[hash]--
	if b.pins[hash] <= 0 {
		delete(b.pins, hash)
	}
}

func (b *fakeBackend) pinCount(hash common.Hash) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pins[hash]
}
