package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shifa/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestCredentialRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Empty store.
	cred, err := s.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Nil(t, cred)

	saved := models.Credential{
		Token:     "abc",
		TokenType: "Bearer",
		User: models.User{
			ID:    9,
			Name:  "Sara Al-Otaibi",
			Email: "sara@example.com",
			Phone: "0512345678",
		},
	}
	require.NoError(t, s.SaveCredential(ctx, saved))

	loaded, err := s.LoadCredential(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved, *loaded)

	// Replacing keeps a single row.
	saved.Token = "def"
	require.NoError(t, s.SaveCredential(ctx, saved))
	loaded, err = s.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Equal(t, "def", loaded.Token)

	require.NoError(t, s.ClearCredential(ctx))
	loaded, err = s.LoadCredential(ctx)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Clearing an empty store is fine.
	require.NoError(t, s.ClearCredential(ctx))
}

func TestSettings(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	val, err := s.GetSetting(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, val)

	require.NoError(t, s.SetSetting(ctx, "lang", "ar"))
	val, err = s.GetSetting(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "ar", val)

	require.NoError(t, s.SetSetting(ctx, "lang", "en"))
	val, err = s.GetSetting(ctx, "lang")
	require.NoError(t, err)
	assert.Equal(t, "en", val)

	// Empty value removes the key.
	require.NoError(t, s.SetSetting(ctx, "lang", ""))
	val, err = s.GetSetting(ctx, "lang")
	require.NoError(t, err)
	assert.Empty(t, val)
}

func TestBaseURLOverride(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	url, err := s.BaseURLOverride(ctx)
	require.NoError(t, err)
	assert.Empty(t, url)

	require.NoError(t, s.SetBaseURLOverride(ctx, "https://staging.clinic.example"))
	url, err = s.BaseURLOverride(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https://staging.clinic.example", url)

	require.NoError(t, s.SetBaseURLOverride(ctx, ""))
	url, err = s.BaseURLOverride(ctx)
	require.NoError(t, err)
	assert.Empty(t, url)
}
