package upstream

import (
	"errors"
	"fmt"
)

// Sentinel kinds for upstream errors.
var (
	ErrTransport = errors.New("upstream request failed")
	ErrStatus    = errors.New("upstream returned non-success status")
	ErrDecode    = errors.New("upstream response could not be decoded")

	ErrBodyTooLarge = errors.New("upstream response body too large")
)

// StatusError reports a non-2xx response. It matches ErrStatus with errors.Is.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %s: status %d", ErrStatus, e.Endpoint, e.StatusCode)
}

// Is reports whether target is ErrStatus.
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}
