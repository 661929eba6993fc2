package routing

import "errors"

// Sentinel error kinds returned by the routing core. Callers discriminate
// with errors.Is; every one of these leaves the structure it was raised
// against completely unchanged.
var (
	// ErrLinkConflict is returned when an operation references an id
	// already present in the structure bound to a different link.
	ErrLinkConflict = errors.New("routing: link conflict")

	// ErrInvalidId is returned for a bit-length mismatch or a
	// structurally impossible id.
	ErrInvalidId = errors.New("routing: invalid id")

	// ErrBadOperation is returned when stale, lock, or unlock is called
	// against a node that is not currently in the live set.
	ErrBadOperation = errors.New("routing: bad operation")
)
