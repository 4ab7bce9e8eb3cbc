package chainhead

import "testing"

// TestOperationLimiterSaturation is scenario S6 from §8.
func TestOperationLimiterSaturation(t *testing.T) {
	lim := newOperationLimiter(2)

	p1 := lim.reserveAtMost(1)
	if p1 == nil || p1.NumPermits() != 1 {
		t.Fatalf("first reservation: got %v, want permit of 1", p1)
	}

	p2 := lim.reserveAtMost(2)
	if p2 == nil || p2.NumPermits() != 1 {
		t.Fatalf("second reservation: got %v, want permit of 1 (only 1 free)", p2)
	}

	if got := lim.reserveAtMost(1); got != nil {
		t.Fatalf("third reservation: got %v, want none", got)
	}

	p2.Release()
	p3 := lim.reserveAtMost(1)
	if p3 == nil || p3.NumPermits() != 1 {
		t.Fatalf("reservation after release: got %v, want permit of 1", p3)
	}
}

func TestPermitReleaseIsIdempotent(t *testing.T) {
	lim := newOperationLimiter(1)
	p := lim.reserveAtMost(1)
	p.Release()
	p.Release() // must not double-credit available permits

	if lim.available != 1 {
		t.Fatalf("available = %d, want 1 after idempotent release", lim.available)
	}
}

func TestOperationLimiterZeroRequestYieldsNone(t *testing.T) {
	lim := newOperationLimiter(2)
	if got := lim.reserveAtMost(0); got != nil {
		t.Fatalf("reserveAtMost(0) = %v, want nil", got)
	}
}
