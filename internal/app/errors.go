package service

import "errors"

// Sentinel kinds for catalogue errors.
var (
	ErrFetchFailure    = errors.New("catalogue fetch failed")
	ErrInvalidPage     = errors.New("page must not be negative")
	ErrInvalidPageSize = errors.New("page size must be positive")

	// ErrRefreshAbandoned means the caller stopped waiting. The refresh
	// itself may still succeed.
	ErrRefreshAbandoned = errors.New("stopped waiting for catalogue refresh")
)
