// Package common defines shared constants and sentinel errors used across
// client layers of parishkeeper. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Auth errors: missing/expired session or rejected credentials.
	ErrUnauthorized = errors.New("unauthorized")
	ErrNoSession    = errors.New("no active session")
	ErrInvalidToken = errors.New("invalid token")

	ErrInvalidCredentials = errors.New("invalid email or password")

	// Validation errors, raised before any I/O happens.
	ErrValidation = errors.New("validation error")
)
