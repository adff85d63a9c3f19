// Package common defines shared constants and sentinel errors used across
// the filestream server, its backends and the admin CLI. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// ErrorUnauthorized rejects admin requests without a valid bearer token.
	ErrorUnauthorized = errors.New("unauthorized")

	// Retrieval errors.
	ErrInvalidMode       = errors.New("invalid mode parameter")
	ErrRateLimited       = errors.New("rate limit exceeded")
	ErrUnsupportedObject = errors.New("unsupported or missing object")
	ErrBackendFailure    = errors.New("backend failure")
	ErrFileTooLarge      = errors.New("file too large")

	// ErrInvalidToken covers malformed, forged and tampered link tokens alike.
	// Callers must not learn which decoding step failed.
	ErrInvalidToken = errors.New("invalid token")

	// Admin token errors.
	ErrTokenExpired = errors.New("token expired")
)
