// Package identity wraps the external identity provider: building the
// authorization URL the user follows, exchanging the callback code for an
// assertion, and fetching the confirmed identity behind it.
package identity

import "context"

// Identity is the provider-confirmed account behind an access token.
type Identity struct {
	ID          string
	DisplayName string
}

// Provider is the identity-provider capability.
type Provider interface {
	// AuthCodeURL builds the provider authorization URL carrying the
	// composite state parameter.
	AuthCodeURL(state string) string

	// ExchangeCode trades the callback authorization code for an access
	// token (or identity assertion, provider-dependent).
	ExchangeCode(ctx context.Context, code string) (string, error)

	// FetchIdentity resolves the token from ExchangeCode into the account
	// it belongs to.
	FetchIdentity(ctx context.Context, accessToken string) (*Identity, error)
}
