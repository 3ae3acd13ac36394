package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("film not found")
	ErrUpstream   = errors.New("catalogue unavailable")
)
