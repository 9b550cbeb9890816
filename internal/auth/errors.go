package auth

import "errors"

// Sentinel errors for token and credential handling.
var (
	// ErrTokenInvalid is returned for a token with a bad signature, wrong
	// algorithm, missing subject, or past its expiry.
	ErrTokenInvalid = errors.New("auth: invalid token")

	// ErrSecretTooShort is returned when signing with a secret below the minimum length.
	ErrSecretTooShort = errors.New("auth: signing secret too short")

	// ErrInvalidCredentials is returned when a client id or secret does not match.
	ErrInvalidCredentials = errors.New("auth: invalid credentials")
)
