package snapshot

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	f := NewFile(path)

	require.NoError(t, f.Write(context.Background(), []byte(`{"a":1}`)))
	data, err := f.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(data))

	// Second write fully replaces the first.
	require.NoError(t, f.Write(context.Background(), []byte(`{}`)))
	data, err = f.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(data))
}

func TestFile_ColdStart(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "missing.json"))
	_, err := f.Read(context.Background())
	assert.ErrorIs(t, err, ErrNoSnapshot)
}
