// Package common defines shared constants and sentinel errors used across
// client layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Auth errors (invalid, malformed or expired token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// ErrEmptyUserID is returned when an operation needs a user identifier
	// and none was given.
	ErrEmptyUserID = errors.New("empty user id")
)
