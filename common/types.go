// Package common holds small value types shared across the chainhead
// packages, in the teacher's style of keeping wire-agnostic primitives
// (hashes, addresses) out of any one subsystem.
package common

import (
	"encoding/hex"
	"fmt"
)

// HashLength is the expected length of a block hash, in bytes.
const HashLength = 32

// Hash represents a 32-byte block hash. It is comparable and usable as a
// map key, which the chainhead registry relies on throughout.
type Hash [HashLength]byte

// BytesToHash sets the hash to the value of b, left-padding or truncating
// from the left if b is not exactly HashLength bytes.
func BytesToHash(b []byte) Hash {
	var h Hash
	if len(b) > HashLength {
		b = b[len(b)-HashLength:]
	}
	copy(h[HashLength-len(b):], b)
	return h
}

// HexToHash parses a 0x-prefixed or bare hex string into a Hash. Invalid
// input yields the zero hash, matching the teacher's lenient hex helpers.
func HexToHash(s string) Hash {
	if len(s) >= 2 && (s[0:2] == "0x" || s[0:2] == "0X") {
		s = s[2:]
	}
	b, err := hex.DecodeString(s)
	if err != nil {
		return Hash{}
	}
	return BytesToHash(b)
}

// Bytes returns the raw byte slice backing the hash.
func (h Hash) Bytes() []byte { return h[:] }

// Hex returns the 0x-prefixed hex encoding of the hash.
func (h Hash) Hex() string { return "0x" + hex.EncodeToString(h[:]) }

// String implements fmt.Stringer.
func (h Hash) String() string { return h.Hex() }

// Format implements fmt.Formatter so %x and %v both produce sensible output
// without forcing callers to call Hex() explicitly: %v and %s print Hex(),
// which is how the log package renders hashes; other verbs format the raw
// bytes.
func (h Hash) Format(s fmt.State, c rune) {
	switch c {
	case 'v', 's':
		fmt.Fprint(s, h.Hex())
	default:
		fmt.Fprintf(s, "%"+string(c), h.Bytes())
	}
}

// IsZero reports whether the hash is the all-zero value, typically meaning
// "no hash" rather than a valid genesis-adjacent hash.
func (h Hash) IsZero() bool { return h == Hash{} }
