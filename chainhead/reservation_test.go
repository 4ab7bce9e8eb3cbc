package chainhead

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chainhead-go/subscriptions/common/mclock"
)

func newTestReservations(t *testing.T, maxPerConn int) (*Reservations, *Registry) {
	t.Helper()
	backend := newFakeBackend()
	cfg := Config{GlobalMaxPinnedBlocks: 10, LocalMaxPinDuration: time.Second, MaxOngoingOperations: 16}
	r := NewRegistry(cfg, backend, mclock.System{}, nil)
	return NewReservations(r, maxPerConn), r
}

func TestReserveSubscriptionQuota(t *testing.T) {
	rs, _ := newTestReservations(t, 1)

	res1 := rs.ReserveSubscription("conn1")
	require.NotNil(t, res1)

	res2 := rs.ReserveSubscription("conn1")
	require.Nil(t, res2)

	res1.Release()
	res3 := rs.ReserveSubscription("conn1")
	require.NotNil(t, res3)
}

func TestReservedInsertSubscriptionConsumesReservation(t *testing.T) {
	rs, registry := newTestReservations(t, 1)

	reserved := rs.ReserveSubscription("conn1")
	require.NotNil(t, reserved)

	data := reserved.InsertSubscription("sub-A", false)
	require.NotNil(t, data)
	require.True(t, registry.HasSubscription("sub-A"))

	reserved.Release()
	require.False(t, registry.HasSubscription("sub-A"))

	// Quota slot must have been freed too.
	res2 := rs.ReserveSubscription("conn1")
	require.NotNil(t, res2)
}

// TestReservedReleaseUnusedStillFreesQuota is the original_source-derived
// supplemented behavior: Release always frees the quota slot, whether or
// not InsertSubscription was ever called.
func TestReservedReleaseUnusedStillFreesQuota(t *testing.T) {
	rs, _ := newTestReservations(t, 1)

	reserved := rs.ReserveSubscription("conn1")
	require.NotNil(t, reserved)
	reserved.Release() // never populated

	res2 := rs.ReserveSubscription("conn1")
	require.NotNil(t, res2)
}

func TestReservedReleaseIsIdempotent(t *testing.T) {
	rs, registry := newTestReservations(t, 2)

	reserved := rs.ReserveSubscription("conn1")
	reserved.InsertSubscription("sub-A", false)
	reserved.Release()
	reserved.Release() // must not double-free the quota or double-remove

	require.False(t, registry.HasSubscription("sub-A"))
	res2 := rs.ReserveSubscription("conn1")
	res3 := rs.ReserveSubscription("conn1")
	require.NotNil(t, res2)
	require.NotNil(t, res3)
}
