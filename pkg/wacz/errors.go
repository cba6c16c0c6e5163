package wacz

import "errors"

// Error kinds surfaced by Run.Process, per the packaging pipeline's error
// handling design.
var (
	// ErrConfigInvalid is returned when a required option is missing or
	// unusable.
	ErrConfigInvalid = errors.New("invalid configuration")

	// ErrInputNotFound is returned when no WARC remains after filtering.
	ErrInputNotFound = errors.New("no warc input found")

	// ErrIndexingFailed wraps the first worker task failure.
	ErrIndexingFailed = errors.New("indexing failed")

	// ErrWriteFailed is returned for a ZIP writer / output sink error.
	ErrWriteFailed = errors.New("write failed")

	// ErrSigningFailed is returned when the signing collaborator errors.
	ErrSigningFailed = errors.New("signing failed")

	// ErrSignerTimeout is returned when the signing call exceeds its
	// configured deadline.
	ErrSignerTimeout = errors.New("signer timed out")

	// ErrSignatureInvalid is returned when a signer's response fails
	// validation against the WACZ signature format.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrAlreadyConsumed is returned when Process is called more than once.
	ErrAlreadyConsumed = errors.New("run already consumed")

	// ErrCancelled is returned on cooperative cancellation.
	ErrCancelled = errors.New("run cancelled")
)
