package cli

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"testviewer/internal/config"
	"testviewer/internal/github"
	"testviewer/internal/storage"
)

func TestFlags_ToConfigFlags(t *testing.T) {
	f := Flags{Repo: "octo/widgets", Workers: 3, NoCache: true, CoverageDir: "out"}
	got := f.ToConfigFlags()

	assert.Equal(t, "octo", got.Owner)
	assert.Equal(t, "widgets", got.Repo)
	assert.Equal(t, 3, got.Workers)
	assert.True(t, got.NoCache)
	assert.Equal(t, "out", got.CoverageDir)
}

func newMemoryEnv(t *testing.T) (*Env, storage.Store) {
	t.Helper()
	cfg := config.New()
	cfg.Flags.NoCache = true
	env := NewEnv(cfg, zerolog.Nop())
	store, err := env.Store()
	require.NoError(t, err)
	return env, store
}

func TestEnv_APIFailure(t *testing.T) {
	t.Run("auth expired clears the token", func(t *testing.T) {
		env, store := newMemoryEnv(t)
		require.NoError(t, store.Set(storage.TokenKey, "old"))

		err := env.APIFailure(&github.APIError{Status: 401}, github.SubjectRuns)

		assert.EqualError(t, err, "Authentication failed. Your token may have expired. Please sign in again.")
		assert.ErrorIs(t, err, github.ErrAuthExpired)
		_, ok, _ := store.Get(storage.TokenKey)
		assert.False(t, ok)
	})

	t.Run("other failures keep the token", func(t *testing.T) {
		env, store := newMemoryEnv(t)
		require.NoError(t, store.Set(storage.TokenKey, "old"))

		err := env.APIFailure(errors.New("dial tcp: timeout"), github.SubjectRuns)

		assert.EqualError(t, err, "Failed to fetch workflow runs. Please try again.")
		_, ok, _ := store.Get(storage.TokenKey)
		assert.True(t, ok)
	})
}

func TestEnv_ClientUsesStoredToken(t *testing.T) {
	env, store := newMemoryEnv(t)
	require.NoError(t, store.Set(storage.TokenKey, "stored"))
	env.Config.Owner, env.Config.Repo = "octo", "widgets"

	_, err := env.Client()
	require.NoError(t, err)
	assert.Equal(t, "stored", env.Config.Token)

	env.Config.Repo = ""
	_, err = env.Client()
	assert.Error(t, err, "repository must be configured")
}
