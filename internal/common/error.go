// Package common defines shared constants and sentinel errors used across
// the lifecycle service layers. Callers should use errors.Is to match these
// values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Attachment cap violated. Raised before any remote call is made.
	ErrLimitExceeded = errors.New("attachment limit exceeded")

	// A BlobStore, queue, dependent-service or identity call failed after retries.
	ErrRemoteCall = errors.New("remote call failed")

	// A batch job completed but some of its units failed.
	ErrPartialFailure = errors.New("partial failure")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
