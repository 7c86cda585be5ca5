// Package common contains shared constants and sentinel errors used across
// SanderCoin client components.
package common

// AuthorizationHeaderName carries the bearer token on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// RequestIDHeaderName tags transaction submissions so the server can
// correlate retries of the same request.
const RequestIDHeaderName = "X-Request-ID"

// Metadata keys of the persisted credential. Their presence is the sole
// basis for session restoration.
const (
	MetadataKeyUserID    = "auth_user_id"
	MetadataKeyAuthToken = "auth_token"
)
