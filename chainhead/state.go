package chainhead

// BlockState is the four-valued lifecycle tag tracked per (subscription,
// block). The two announcement sources (best, finalized) and the client's
// unpin both advance it; only a hash that has been announced twice and
// unpinned is ever removed from a subscription's block map.
type BlockState int

const (
	// Registered means one of {best, finalized} has announced the block
	// and unpin has not yet been called.
	Registered BlockState = iota
	// FullyRegistered means both events have announced the block and
	// unpin has not yet been called.
	FullyRegistered
	// Unpinned means only one event arrived, but unpin was already
	// issued.
	Unpinned
	// FullyUnpinned means both events arrived and unpin was issued. This
	// is terminal and causes removal from the per-subscription map.
	FullyUnpinned
)

func (s BlockState) String() string {
	switch s {
	case Registered:
		return "Registered"
	case FullyRegistered:
		return "FullyRegistered"
	case Unpinned:
		return "Unpinned"
	case FullyUnpinned:
		return "FullyUnpinned"
	default:
		return "invalid"
	}
}

// advanceRegister applies a second-or-later announcement event to s:
// Registered becomes FullyRegistered and Unpinned becomes FullyUnpinned.
// It is idempotent in its terminal direction: FullyRegistered and
// FullyUnpinned are unaffected.
func (s BlockState) advanceRegister() BlockState {
	switch s {
	case Registered:
		return FullyRegistered
	case Unpinned:
		return FullyUnpinned
	default:
		return s
	}
}

// advanceUnpin applies an unpin event to s.
func (s BlockState) advanceUnpin() BlockState {
	switch s {
	case Registered:
		return Unpinned
	case FullyRegistered:
		return FullyUnpinned
	default:
		return s
	}
}

// wasUnpinned reports whether unpin has already been issued for this
// entry, regardless of whether both announcements have arrived.
func (s BlockState) wasUnpinned() bool {
	return s == Unpinned || s == FullyUnpinned
}
