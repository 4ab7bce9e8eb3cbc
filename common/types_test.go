package common

import "testing"

func TestBytesConversion(t *testing.T) {
	bytes := []byte{5}
	hash := BytesToHash(bytes)

	var exp Hash
	exp[31] = 5

	if hash != exp {
		t.Errorf("expected %x got %x", exp, hash)
	}
}

func TestHexToHashRoundTrip(t *testing.T) {
	h := HexToHash("0x0000000000000000000000000000000000000000000000000000000000002a")
	if h[31] != 0x2a {
		t.Errorf("expected last byte 0x2a, got %x", h[31])
	}
	if got := HexToHash(h.Hex()); got != h {
		t.Errorf("round trip mismatch: got %x, want %x", got, h)
	}
}

func TestHexToHashInvalid(t *testing.T) {
	if got := HexToHash("not-hex"); !got.IsZero() {
		t.Errorf("expected zero hash for invalid input, got %x", got)
	}
}

func TestHashIsZero(t *testing.T) {
	var h Hash
	if !h.IsZero() {
		t.Error("expected zero value Hash to report IsZero")
	}
	h[0] = 1
	if h.IsZero() {
		t.Error("expected non-zero Hash to not report IsZero")
	}
}
