package domain

import "errors"

// Domain errors - used across all layers
var (
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates the resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates the input is invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrSyncInProgress indicates a sync tick is already running
	ErrSyncInProgress = errors.New("sync already in progress")

	// ErrSourceNotFound indicates the remote source no longer exists.
	// Permanent: the owning subscription is evicted.
	ErrSourceNotFound = errors.New("source not found")

	// ErrWorksheetNotFound indicates a worksheet vanished from the source.
	// Permanent: the owning subscription is evicted.
	ErrWorksheetNotFound = errors.New("worksheet not found")

	// ErrAccessRevoked indicates credentials for the source were revoked.
	// Permanent: the owning subscription is evicted.
	ErrAccessRevoked = errors.New("source access revoked")

	// ErrRateLimited indicates the remote source rejected the call for
	// quota reasons. Transient: retried with backoff.
	ErrRateLimited = errors.New("rate limited by source")

	// ErrUnavailable indicates the remote source could not be reached or
	// answered with a server error. Transient: retried with backoff.
	ErrUnavailable = errors.New("source unavailable")

	// ErrDelivery indicates one or more rows could not be delivered to the
	// sink. The cursor is left untouched so the rows are redelivered.
	ErrDelivery = errors.New("delivery failed")
)

// IsPermanent reports whether err means the source is gone for good and the
// subscription should be evicted rather than retried.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrSourceNotFound) ||
		errors.Is(err, ErrWorksheetNotFound) ||
		errors.Is(err, ErrAccessRevoked)
}

// IsTransient reports whether err is worth retrying with backoff.
func IsTransient(err error) bool {
	return errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUnavailable)
}
