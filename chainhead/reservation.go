package chainhead

import "sync"

// Reservations implements the per-connection quota façade of §4.6: it
// separates cheap slot acquisition from the (possibly more expensive, or
// caller-chosen-id) act of actually inserting a subscription.
type Reservations struct {
	registry *Registry

	mu     sync.Mutex
	maxPer int
	used   map[string]int
}

// NewReservations constructs a façade over registry enforcing maxPerConn
// subscriptions per connection id.
func NewReservations(registry *Registry, maxPerConn int) *Reservations {
	return &Reservations{
		registry: registry,
		maxPer:   maxPerConn,
		used:     make(map[string]int),
	}
}

// ReserveSubscription consults the connection's quota and returns a
// Reserved slot, or nil if the quota is exhausted.
func (rs *Reservations) ReserveSubscription(connID string) *Reserved {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.used[connID] >= rs.maxPer {
		return nil
	}
	rs.used[connID]++
	return &Reserved{parent: rs, connID: connID}
}

func (rs *Reservations) release(connID string) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.used[connID]--
	if rs.used[connID] <= 0 {
		delete(rs.used, connID)
	}
}

// Reserved is a single reserved subscription slot for one connection. It
// must be released exactly once, typically via defer immediately after
// ReserveSubscription succeeds:
//
//	reserved := reservations.ReserveSubscription(connID)
//	if reserved == nil {
//		return ErrExceededLimits
//	}
//	defer reserved.Release()
type Reserved struct {
	parent *Reservations
	connID string

	mu        sync.Mutex
	subID     string
	populated bool
	released  bool
}

// InsertSubscription performs the real insert into the registry,
// consuming the reservation. It returns nil if subID is already
// registered (mirroring Registry.InsertSubscription), in which case the
// reservation remains unpopulated and still holds its quota slot.
func (r *Reserved) InsertSubscription(subID string, withRuntime bool) *InsertedSubscriptionData {
	data := r.parent.registry.InsertSubscription(subID, withRuntime)
	if data == nil {
		return nil
	}
	r.mu.Lock()
	r.subID = subID
	r.populated = true
	r.mu.Unlock()
	return data
}

// Release returns the connection's quota slot. If the reservation was
// populated with a subscription, Release also tears that subscription
// down via Registry.RemoveSubscription, freeing its pinned blocks. It is
// idempotent: an unused Reserved (never populated, or whose
// InsertSubscription returned nil) releases the slot once; a populated one
// releases both the subscription and the slot once.
func (r *Reserved) Release() {
	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return
	}
	r.released = true
	populated := r.populated
	subID := r.subID
	r.mu.Unlock()

	if populated {
		r.parent.registry.RemoveSubscription(subID)
	}
	r.parent.release(r.connID)
}
