// Package redisstore is the Redis-backed verification session store,
// selectable for deployments that run more than one bridge process. Expiry
// is native (key TTL), so the periodic sweep has nothing to do here.
package redisstore

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/pkg/token"
	"github.com/rs/zerolog"
)

const keyPrefix = "vrs:"

type SessionStore struct {
	client *redis.Client
	window time.Duration
	log    zerolog.Logger
	now    func() time.Time
}

func New(client *redis.Client, window time.Duration, log zerolog.Logger) *SessionStore {
	return &SessionStore{
		client: client,
		window: window,
		log:    log.With().Str("store", "sessions-redis").Logger(),
		now:    time.Now,
	}
}

func (s *SessionStore) key(subjectID string) string {
	return keyPrefix + subjectID
}

// Load verifies connectivity; there is no snapshot to restore.
func (s *SessionStore) Load(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	return nil
}

// Create stores a fresh session under the subject's key with the expiration
// window as TTL. SET replaces any prior session, killing its link.
func (s *SessionStore) Create(ctx context.Context, subjectID, communityID string) (string, error) {
	secret, err := token.New()
	if err != nil {
		return "", err
	}
	sess := domain.VerificationSession{
		SubjectID:   subjectID,
		CommunityID: communityID,
		Secret:      secret,
		CreatedAt:   s.now().UTC(),
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(subjectID), data, s.window).Err(); err != nil {
		return "", fmt.Errorf("redis set session: %w", err)
	}
	return secret, nil
}

// Redeem atomically consumes the session via WATCH so two concurrent
// redemptions cannot both succeed. A wrong secret leaves the key intact.
func (s *SessionStore) Redeem(ctx context.Context, subjectID, presented string) (string, error) {
	const maxRetries = 4
	key := s.key(subjectID)

	for i := 0; i < maxRetries; i++ {
		var communityID string

		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				return err
			}
			var sess domain.VerificationSession
			if err := json.Unmarshal(data, &sess); err != nil {
				return fmt.Errorf("decode session: %w", err)
			}
			if sess.Age(s.now()) > s.window {
				// TTL should already have removed it; delete defensively.
				if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
					pipe.Del(ctx, key)
					return nil
				}); err != nil {
					return err
				}
				return domain.ErrExpired
			}
			if subtle.ConstantTimeCompare([]byte(sess.Secret), []byte(presented)) != 1 {
				return domain.ErrSecretMismatch
			}
			if _, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, key)
				return nil
			}); err != nil {
				return err
			}
			communityID = sess.CommunityID
			return nil
		}, key)

		if err == redis.TxFailedErr {
			continue
		}
		if errors.Is(err, redis.Nil) {
			return "", fmt.Errorf("no pending session for subject: %w", domain.ErrNotFound)
		}
		if errors.Is(err, domain.ErrExpired) {
			return "", fmt.Errorf("session past expiration window: %w", domain.ErrExpired)
		}
		if errors.Is(err, domain.ErrSecretMismatch) {
			return "", fmt.Errorf("presented secret does not match: %w", domain.ErrSecretMismatch)
		}
		if err != nil {
			return "", fmt.Errorf("redis redeem: %w", err)
		}
		return communityID, nil
	}
	return "", fmt.Errorf("redeem contention not resolved: %w", domain.ErrNotFound)
}

// SweepExpired is a no-op: Redis evicts on TTL.
func (s *SessionStore) SweepExpired(context.Context) int {
	return 0
}

// Persist is a no-op: Redis owns durability for this backend.
func (s *SessionStore) Persist(context.Context) error {
	return nil
}
