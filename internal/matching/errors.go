package matching

import "errors"

// Error kinds returned by the engine. Handlers translate these to HTTP
// statuses; the engine never retries or swallows them.
var (
	ErrNotFound              = errors.New("not found")
	ErrForbidden             = errors.New("forbidden")
	ErrInvalidState          = errors.New("invalid state")
	ErrDuplicateRelationship = errors.New("duplicate relationship")
	ErrCapacityExceeded      = errors.New("capacity exceeded")
	ErrBusy                  = errors.New("busy")
)
