package chainhead

import "errors"

// Sentinel errors form the closed taxonomy from §7: callers distinguish
// them with errors.Is rather than string matching.
var (
	// ErrSubscriptionAbsent means no such subscription id exists.
	ErrSubscriptionAbsent = errors.New("chainhead: subscription absent")
	// ErrBlockHashAbsent means the subscription does not currently track
	// the hash, either because it was never announced or already
	// unpinned.
	ErrBlockHashAbsent = errors.New("chainhead: block hash absent")
	// ErrDuplicateHashes means UnpinBlocks was called with repeated
	// hashes in a single call.
	ErrDuplicateHashes = errors.New("chainhead: duplicate hashes")
	// ErrExceededLimits means capacity could not be obtained: either the
	// global pinned-block cap forced the requesting subscription to be
	// terminated, or no operation permit was available.
	ErrExceededLimits = errors.New("chainhead: exceeded limits")
)

// CustomError wraps a backend pin_block failure verbatim, per §7's
// Custom(string) variant.
type CustomError struct {
	Err error
}

func (e *CustomError) Error() string {
	return "chainhead: backend error: " + e.Err.Error()
}

func (e *CustomError) Unwrap() error {
	return e.Err
}

func newCustomError(err error) *CustomError {
	return &CustomError{Err: err}
}
