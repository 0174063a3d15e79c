package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so the transport layer can pick a response page
// without leaking infrastructure details to the end user.
var (
	ErrNotFound         = errors.New("not found")
	ErrSecretMismatch   = errors.New("secret mismatch")
	ErrExpired          = errors.New("expired")
	ErrBadRequest       = errors.New("bad request")
	ErrNotConfigured    = errors.New("not configured")
	ErrIdentityMismatch = errors.New("identity mismatch")
	ErrUpstream         = errors.New("upstream failure")
)
