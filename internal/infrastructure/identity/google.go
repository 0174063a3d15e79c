package identity

import (
	"context"
	"fmt"

	"github.com/rolegate/internal/domain"
	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"google.golang.org/api/idtoken"
)

// Google verifies identities through Google's OIDC flow: the code exchange
// yields an id_token, which is then validated against the client ID instead
// of a userinfo round trip.
type Google struct {
	oauth    *oauth2.Config
	audience string
	validate func(ctx context.Context, token, audience string) (*idtoken.Payload, error)
}

func NewGoogle(clientID, clientSecret, redirectURL, audience string) *Google {
	if audience == "" {
		audience = clientID
	}
	return &Google{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"openid", "profile"},
			Endpoint:     googleoauth.Endpoint,
		},
		audience: audience,
		validate: idtoken.Validate,
	}
}

func (g *Google) AuthCodeURL(state string) string {
	return g.oauth.AuthCodeURL(state)
}

// ExchangeCode returns the id_token from the token response; it is the
// identity assertion FetchIdentity validates.
func (g *Google) ExchangeCode(ctx context.Context, code string) (string, error) {
	tok, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return "", fmt.Errorf("google code exchange: %v: %w", err, domain.ErrUpstream)
	}
	raw, ok := tok.Extra("id_token").(string)
	if !ok || raw == "" {
		return "", fmt.Errorf("google token response missing id_token: %w", domain.ErrUpstream)
	}
	return raw, nil
}

func (g *Google) FetchIdentity(ctx context.Context, assertion string) (*Identity, error) {
	p, err := g.validate(ctx, assertion, g.audience)
	if err != nil {
		return nil, fmt.Errorf("invalid google id_token: %v: %w", err, domain.ErrUpstream)
	}
	name, _ := p.Claims["name"].(string)
	return &Identity{ID: p.Subject, DisplayName: name}, nil
}
