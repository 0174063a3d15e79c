// Package store holds the verification session and community settings
// stores. Each store owns its in-memory map, linearizes mutations behind a
// mutex, and rewrites its snapshot document after every mutation.
package store

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/infrastructure/snapshot"
	"github.com/rolegate/internal/pkg/token"
	"github.com/rs/zerolog"
)

// SessionStore keeps at most one pending verification session per subject.
// The per-subject state machine is ABSENT → PENDING → consumed (redeemed,
// expired or swept), where every terminal transition deletes the record.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.VerificationSession
	window   time.Duration
	snap     snapshot.Backend
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionStore(snap snapshot.Backend, window time.Duration, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]domain.VerificationSession),
		window:   window,
		snap:     snap,
		log:      log.With().Str("store", "sessions").Logger(),
		now:      time.Now,
	}
}

// Load restores the last snapshot. Must complete before the store accepts
// traffic. A missing snapshot is a cold start, not an error.
func (s *SessionStore) Load(ctx context.Context) error {
	data, err := s.snap.Read(ctx)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load sessions: %w", err)
	}
	loaded := make(map[string]domain.VerificationSession)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode sessions snapshot: %w", err)
	}
	s.mu.Lock()
	s.sessions = loaded
	s.mu.Unlock()
	return nil
}

// Create generates a fresh secret and stores a new pending session for the
// subject, replacing any prior one. The prior session's link goes dead.
func (s *SessionStore) Create(ctx context.Context, subjectID, communityID string) (string, error) {
	secret, err := token.New()
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[subjectID] = domain.VerificationSession{
		SubjectID:   subjectID,
		CommunityID: communityID,
		Secret:      secret,
		CreatedAt:   s.now().UTC(),
	}
	s.persistLocked(ctx)
	return secret, nil
}

// Redeem consumes the subject's pending session. Exactly one call can
// succeed per session: success and expiry both delete the record, so a
// repeat call reports ErrNotFound. A wrong secret leaves the session intact
// so the legitimate link keeps working until expiry.
func (s *SessionStore) Redeem(ctx context.Context, subjectID, presented string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[subjectID]
	if !ok {
		return "", fmt.Errorf("no pending session for subject: %w", domain.ErrNotFound)
	}
	if sess.Age(s.now()) > s.window {
		delete(s.sessions, subjectID)
		s.persistLocked(ctx)
		return "", fmt.Errorf("session past expiration window: %w", domain.ErrExpired)
	}
	if subtle.ConstantTimeCompare([]byte(sess.Secret), []byte(presented)) != 1 {
		return "", fmt.Errorf("presented secret does not match: %w", domain.ErrSecretMismatch)
	}
	delete(s.sessions, subjectID)
	s.persistLocked(ctx)
	return sess.CommunityID, nil
}

// SweepExpired removes every session older than the expiration window and
// returns how many were removed.
func (s *SessionStore) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for subject, sess := range s.sessions {
		if sess.Age(now) > s.window {
			delete(s.sessions, subject)
			removed++
		}
	}
	if removed > 0 {
		s.persistLocked(ctx)
	}
	return removed
}

// Pending returns the number of live sessions.
func (s *SessionStore) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Persist rewrites the snapshot. Every mutation already persists; this is
// for the shutdown path.
func (s *SessionStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx)
}

// persistLocked writes the snapshot and only logs failures: the in-memory
// state stays authoritative for the process lifetime, a restart is what
// would lose it.
func (s *SessionStore) persistLocked(ctx context.Context) {
	if err := s.writeLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("session snapshot write failed")
	}
}

func (s *SessionStore) writeLocked(ctx context.Context) error {
	data, err := json.Marshal(s.sessions)
	if err != nil {
		return fmt.Errorf("encode sessions: %w", err)
	}
	return s.snap.Write(ctx, data)
}
