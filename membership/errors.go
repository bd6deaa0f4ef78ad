package membership

import "errors"

// Sentinel errors for the membership lifecycle. Handlers map these to
// HTTP status codes; everything else is reported as a generic failure.
var (
	// ErrValidation marks a missing or malformed required field.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a reference to a user, clan or request that does not exist.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized marks an operation attempted without an authenticated actor.
	ErrUnauthorized = errors.New("authentication required")
	// ErrForbidden marks an authenticated actor lacking the role or scope for an operation.
	ErrForbidden = errors.New("insufficient permissions")
)
