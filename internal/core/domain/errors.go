package domain

import "errors"

var (
	// ErrAuthRequired is returned when a route demands a session token and
	// the request carries none. No upstream call is made in that case.
	ErrAuthRequired = errors.New("authentication required")

	// ErrMethodNotAllowed is returned when the request method is outside the
	// route's allowed set.
	ErrMethodNotAllowed = errors.New("method not allowed")

	// ErrRateLimited is returned when the fixed-window limiter denies a request.
	ErrRateLimited = errors.New("too many requests")

	// ErrUpstreamUnavailable wraps transport-level failures reaching the backend.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)
