package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rolegate/internal/domain"
	"github.com/rolegate/internal/infrastructure/snapshot"
	"github.com/rolegate/internal/pkg/validate"
	"github.com/rs/zerolog"
)

// SettingsStore owns the per-community configuration. Callers always receive
// copies; records are created lazily on first update and never deleted.
type SettingsStore struct {
	mu       sync.RWMutex
	settings map[string]domain.CommunitySettings
	snap     snapshot.Backend
	log      zerolog.Logger
}

func NewSettingsStore(snap snapshot.Backend, log zerolog.Logger) *SettingsStore {
	return &SettingsStore{
		settings: make(map[string]domain.CommunitySettings),
		snap:     snap,
		log:      log.With().Str("store", "settings").Logger(),
	}
}

// Load restores the last snapshot; absence is a cold start.
func (s *SettingsStore) Load(ctx context.Context) error {
	data, err := s.snap.Read(ctx)
	if errors.Is(err, snapshot.ErrNoSnapshot) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	loaded := make(map[string]domain.CommunitySettings)
	if err := json.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("decode settings snapshot: %w", err)
	}
	s.mu.Lock()
	s.settings = loaded
	s.mu.Unlock()
	return nil
}

// Get returns the community's settings, or the documented defaults when no
// record exists. Never fails.
func (s *SettingsStore) Get(communityID string) domain.CommunitySettings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if cur, ok := s.settings[communityID]; ok {
		return cur
	}
	return domain.DefaultSettings(communityID)
}

// Update merges the patch over the current (or default) settings, persists
// and returns the merged result.
func (s *SettingsStore) Update(ctx context.Context, communityID string, patch domain.SettingsPatch) (domain.CommunitySettings, error) {
	if err := validate.Struct(patch); err != nil {
		return domain.CommunitySettings{}, fmt.Errorf("%v: %w", err, domain.ErrBadRequest)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.settings[communityID]
	if !ok {
		cur = domain.DefaultSettings(communityID)
	}
	merged := patch.Apply(cur)
	merged.CommunityID = communityID
	s.settings[communityID] = merged
	if err := s.writeLocked(ctx); err != nil {
		s.log.Error().Err(err).Msg("settings snapshot write failed")
	}
	return merged, nil
}

// Persist rewrites the snapshot, for the shutdown path.
func (s *SettingsStore) Persist(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(ctx)
}

func (s *SettingsStore) writeLocked(ctx context.Context) error {
	data, err := json.Marshal(s.settings)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return s.snap.Write(ctx, data)
}
