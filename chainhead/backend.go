package chainhead

import "github.com/chainhead-go/subscriptions/common"

// Backend is the only contract the registry assumes from the storage
// engine: keep a block's state reachable (PinBlock) or release it
// (UnpinBlock). Everything else about storage — the engine, its on-disk
// format, pruning policy outside these two calls — is an external
// collaborator (§6) and out of scope here.
type Backend interface {
	// PinBlock must be safe to call more than once for the same hash;
	// each call is balanced by exactly one UnpinBlock. A failure must be
	// renderable to a string for inclusion in a CustomError.
	PinBlock(hash common.Hash) error

	// UnpinBlock never fails; the registry swallows any error a real
	// implementation might log internally.
	UnpinBlock(hash common.Hash)
}
