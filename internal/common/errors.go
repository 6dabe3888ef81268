// Package common defines shared constants and sentinel errors used across
// the client and server layers of authkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("already exists")

	// Service-level errors (generic/internal flow control). ErrorUnauthorized
	// deliberately carries no detail about which check failed.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Token lifecycle errors (invalid, malformed, or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrSessionEnded is raised by the client session manager when a refresh
	// attempt fails and both tokens have been cleared. The presentation layer
	// should return to an unauthenticated view.
	ErrSessionEnded = errors.New("session ended")
)
