package session

import "errors"

var (
	// ErrNotFound indicates no session exists for the given identifier.
	ErrNotFound = errors.New("session.not_found")

	// ErrExpired indicates the session failed an absolute or idle
	// expiry check. HTTP handlers surface it identically to ErrNotFound;
	// the distinction exists for logging only.
	ErrExpired = errors.New("session.expired")

	// ErrIPMismatch indicates the request IP differs from the one the
	// session was created with. Returned only when IP binding is
	// enforced; otherwise the mismatch is logged and the session stays
	// valid.
	ErrIPMismatch = errors.New("session.ip_mismatch")

	// ErrNotRenewable indicates the session is past its grace window or
	// refresh bound and can no longer seed a replacement.
	ErrNotRenewable = errors.New("session.not_renewable")

	// ErrTokenGeneration indicates the random source failed.
	ErrTokenGeneration = errors.New("session.token_generation_failed")

	// ErrInvalidSession indicates a malformed record was passed to a store.
	ErrInvalidSession = errors.New("session.invalid")
)
