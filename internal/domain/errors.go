package domain

import "errors"

// Domain errors
var (
	ErrAttendanceNotFound  = errors.New("attendance not found")
	ErrBadgeNotFound       = errors.New("badge not found in catalog")
	ErrActivityUnavailable = errors.New("activity store unavailable")
	ErrLedgerUnavailable   = errors.New("award ledger unavailable")
	ErrBackfillRunning     = errors.New("backfill already running")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrInternalError       = errors.New("internal server error")
)

// IsNotFoundError checks if an error is a not-found type error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrAttendanceNotFound) || errors.Is(err, ErrBadgeNotFound)
}

// IsRetryable reports whether the caller should retry the whole per-user
// evaluation later. Retrying is always safe because ledger appends are
// idempotent on (user, badge).
func IsRetryable(err error) bool {
	return errors.Is(err, ErrActivityUnavailable) || errors.Is(err, ErrLedgerUnavailable)
}
