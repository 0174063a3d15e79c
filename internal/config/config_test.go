package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, 5*time.Minute, cfg.SessionWindow)
	assert.Equal(t, time.Minute, cfg.SweepInterval)
	assert.Equal(t, BackendFile, cfg.StoreBackend)
	assert.Equal(t, ProviderDiscord, cfg.IdentityProvider)
}

func TestLoad_WindowOverride(t *testing.T) {
	t.Setenv("SESSION_WINDOW_MS", "1500")
	cfg := Load()
	assert.Equal(t, 1500*time.Millisecond, cfg.SessionWindow)
}

func TestValidate_RequiresCredentials(t *testing.T) {
	cfg := Load()
	assert.Error(t, cfg.Validate())

	cfg.BotToken = "tok"
	cfg.OAuthClientID = "cid"
	cfg.OAuthClientSecret = "secret"
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "http://localhost:3000/callback", cfg.OAuthRedirectURL)
}
