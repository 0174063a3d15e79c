package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rolegate/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const window = 5 * time.Minute

func newStore(t *testing.T) (*SessionStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, window, zerolog.Nop()), mr
}

func TestRedeem_SingleUse(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)
	require.NoError(t, st.Load(ctx))

	secret, err := st.Create(ctx, "42", "7")
	require.NoError(t, err)

	community, err := st.Redeem(ctx, "42", secret)
	require.NoError(t, err)
	assert.Equal(t, "7", community)

	_, err = st.Redeem(ctx, "42", secret)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRedeem_WrongSecretKeepsSession(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)

	secret, err := st.Create(ctx, "42", "7")
	require.NoError(t, err)

	_, err = st.Redeem(ctx, "42", "forged")
	assert.ErrorIs(t, err, domain.ErrSecretMismatch)

	community, err := st.Redeem(ctx, "42", secret)
	require.NoError(t, err)
	assert.Equal(t, "7", community)
}

func TestCreate_ReplacesPendingSession(t *testing.T) {
	ctx := context.Background()
	st, _ := newStore(t)

	oldSecret, err := st.Create(ctx, "42", "7")
	require.NoError(t, err)
	newSecret, err := st.Create(ctx, "42", "7")
	require.NoError(t, err)

	_, err = st.Redeem(ctx, "42", oldSecret)
	assert.ErrorIs(t, err, domain.ErrSecretMismatch)

	community, err := st.Redeem(ctx, "42", newSecret)
	require.NoError(t, err)
	assert.Equal(t, "7", community)
}

func TestRedeem_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	st, mr := newStore(t)

	secret, err := st.Create(ctx, "42", "7")
	require.NoError(t, err)

	mr.FastForward(window + time.Second)

	_, err = st.Redeem(ctx, "42", secret)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSweepExpired_NoOp(t *testing.T) {
	st, _ := newStore(t)
	assert.Zero(t, st.SweepExpired(context.Background()))
}
