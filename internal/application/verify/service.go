// Package verify drives a verification attempt end to end: session
// creation on the bot side, and the callback redemption pipeline on the
// HTTP side.
package verify

import (
	"context"
	"errors"
	"fmt"

	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/infrastructure/identity"
	"github.com/rolegate/internal/pkg/id"
	"github.com/rolegate/internal/pkg/state"
	"github.com/rs/zerolog"
)

// SessionStore is the slice of the session store the orchestrator consumes.
type SessionStore interface {
	Create(ctx context.Context, subjectID, communityID string) (string, error)
	Redeem(ctx context.Context, subjectID, secret string) (string, error)
}

// SettingsReader reads per-community configuration.
type SettingsReader interface {
	Get(communityID string) domain.CommunitySettings
}

// ChatPlatform is the chat-platform capability.
type ChatPlatform interface {
	GrantRole(ctx context.Context, communityID, subjectID, roleID string) error
	LookupRole(communityID, roleID string) bool
	CommunityName(communityID string) string
	SendDirectMessage(ctx context.Context, subjectID, title, body string, color int) error
}

// Alerter publishes operator security alerts. May be nil.
type Alerter interface {
	Alert(ctx context.Context, subject, message string) error
}

// Result is a completed, successful verification.
type Result struct {
	AttemptID   string
	SubjectID   string
	CommunityID string
	DisplayName string
}

type Service interface {
	// BeginVerification creates a session for the subject and returns the
	// provider authorization URL the subject follows.
	BeginVerification(ctx context.Context, subjectID, communityID string) (string, error)

	// CompleteVerification handles the provider callback. Errors wrap the
	// domain sentinels; the transport layer maps them to pages without
	// exposing which rejection occurred.
	CompleteVerification(ctx context.Context, code, compositeState string) (*Result, error)
}

type Deps struct {
	Sessions SessionStore
	Settings SettingsReader
	Provider identity.Provider
	Platform ChatPlatform
	Alerts   Alerter // optional
	Logger   zerolog.Logger
}

type service struct {
	sessions SessionStore
	settings SettingsReader
	provider identity.Provider
	platform ChatPlatform
	alerts   Alerter
	log      zerolog.Logger
}

func NewService(d Deps) Service {
	return &service{
		sessions: d.Sessions,
		settings: d.Settings,
		provider: d.Provider,
		platform: d.Platform,
		alerts:   d.Alerts,
		log:      d.Logger.With().Str("service", "verify").Logger(),
	}
}

func (s *service) BeginVerification(ctx context.Context, subjectID, communityID string) (string, error) {
	secret, err := s.sessions.Create(ctx, subjectID, communityID)
	if err != nil {
		return "", fmt.Errorf("create session: %w", err)
	}
	composite, err := state.Encode(subjectID, communityID, secret)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("subject", subjectID).Str("community", communityID).
		Msg("verification session created")
	return s.provider.AuthCodeURL(composite), nil
}

func (s *service) CompleteVerification(ctx context.Context, code, compositeState string) (*Result, error) {
	subjectID, communityID, secret, err := state.Parse(compositeState)
	if err != nil {
		return nil, err
	}

	attemptID := id.New()
	log := s.log.With().
		Str("attempt", attemptID).
		Str("subject", subjectID).
		Str("community", communityID).
		Logger()

	// Redeem before any provider call so forged or stale requests cost us
	// nothing upstream.
	storedCommunity, err := s.sessions.Redeem(ctx, subjectID, secret)
	if err != nil {
		log.Warn().Err(err).Msg("session redemption rejected")
		if s.alerts != nil && isForgerySignal(err) {
			s.alert(ctx, "rolegate: rejected redemption",
				fmt.Sprintf("attempt %s subject %s community %s: %v", attemptID, subjectID, communityID, err))
		}
		return nil, err
	}
	communityID = storedCommunity

	accessToken, err := s.provider.ExchangeCode(ctx, code)
	if err != nil {
		log.Error().Err(err).Msg("code exchange failed")
		return nil, err
	}
	ident, err := s.provider.FetchIdentity(ctx, accessToken)
	if err != nil {
		log.Error().Err(err).Msg("identity fetch failed")
		return nil, err
	}

	if ident.ID != subjectID {
		// Someone completed their own provider flow and tried to bind it to
		// another subject's pending session.
		log.Error().Str("provider_identity", ident.ID).Msg("identity mismatch")
		if s.alerts != nil {
			s.alert(ctx, "rolegate: identity mismatch",
				fmt.Sprintf("attempt %s: session subject %s, provider identity %s", attemptID, subjectID, ident.ID))
		}
		return nil, fmt.Errorf("provider identity %s does not own session: %w", ident.ID, domain.ErrIdentityMismatch)
	}

	cfg := s.settings.Get(communityID)
	if cfg.RoleID == "" {
		log.Warn().Msg("no role configured for community")
		return nil, fmt.Errorf("community has no verified role: %w", domain.ErrNotConfigured)
	}
	if !s.platform.LookupRole(communityID, cfg.RoleID) {
		log.Warn().Str("role", cfg.RoleID).Msg("configured role no longer exists")
		return nil, fmt.Errorf("configured role absent: %w", domain.ErrNotConfigured)
	}
	if err := s.platform.GrantRole(ctx, communityID, subjectID, cfg.RoleID); err != nil {
		log.Error().Err(err).Str("role", cfg.RoleID).Msg("role grant failed")
		return nil, fmt.Errorf("role grant: %v: %w", err, domain.ErrNotConfigured)
	}

	log.Info().Str("role", cfg.RoleID).Msg("verification complete")

	// Best-effort notification: verification already succeeded.
	vars := domain.TemplateVars{
		CommunityName: s.platform.CommunityName(communityID),
		SubjectName:   ident.DisplayName,
	}
	if err := s.platform.SendDirectMessage(ctx, subjectID,
		domain.RenderTemplate(cfg.DMTitle, vars),
		domain.RenderTemplate(cfg.DMBody, vars),
		cfg.DMColor); err != nil {
		log.Warn().Err(err).Msg("post-verification dm failed")
	}

	return &Result{
		AttemptID:   attemptID,
		SubjectID:   subjectID,
		CommunityID: communityID,
		DisplayName: ident.DisplayName,
	}, nil
}

func (s *service) alert(ctx context.Context, subject, message string) {
	if err := s.alerts.Alert(ctx, subject, message); err != nil {
		s.log.Warn().Err(err).Msg("security alert publish failed")
	}
}

// isForgerySignal reports whether a redemption failure looks like a forgery
// attempt rather than an expired or duplicated link.
func isForgerySignal(err error) bool {
	return errors.Is(err, domain.ErrSecretMismatch)
}
