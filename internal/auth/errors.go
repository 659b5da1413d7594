package auth

import "errors"

// Sentinel errors for every authentication/authorization failure path.
// Handlers map these to transport codes with errors.Is; nothing in this
// package swallows a failure silently.
var (
	// ErrInvalidCredentials covers both unknown username and wrong password
	// so responses cannot be used for user enumeration.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled is returned for deactivated users even when their
	// credentials or tokens are otherwise valid.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrTokenExpired marks an access token past its embedded expiry.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid marks a malformed access token or a signature mismatch.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrRefreshTokenInvalid marks a refresh token that is unknown, revoked,
	// expired, or lost a rotation race.
	ErrRefreshTokenInvalid = errors.New("refresh token invalid or revoked")

	// ErrPermissionDenied marks an authenticated request lacking a required
	// permission code.
	ErrPermissionDenied = errors.New("permission denied")
)
