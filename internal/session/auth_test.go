package session

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shifa/internal/models"
)

type memoryCredStore struct {
	cred    *models.Credential
	saveErr error
	loadErr error
}

func (m *memoryCredStore) LoadCredential(context.Context) (*models.Credential, error) {
	return m.cred, m.loadErr
}

func (m *memoryCredStore) SaveCredential(_ context.Context, cred models.Credential) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.cred = &cred
	return nil
}

func (m *memoryCredStore) ClearCredential(context.Context) error {
	m.cred = nil
	return nil
}

func testCred() models.Credential {
	return models.Credential{
		Token: "abc",
		User:  models.User{ID: 9, Name: "Sara", Phone: "0512345678"},
	}
}

func TestAuthApplyAndClear(t *testing.T) {
	store := &memoryCredStore{}
	a := NewAuth(store, zerolog.New(io.Discard))
	ctx := context.Background()

	assert.False(t, a.IsAuthenticated())
	assert.Empty(t, a.Token())
	assert.Nil(t, a.User())

	require.NoError(t, a.Apply(ctx, testCred()))
	assert.True(t, a.IsAuthenticated())
	assert.Equal(t, "abc", a.Token())
	require.NotNil(t, a.User())
	assert.Equal(t, int64(9), a.User().ID)
	require.NotNil(t, store.cred)

	a.Clear(ctx)
	assert.False(t, a.IsAuthenticated())
	assert.Empty(t, a.Token())
	assert.Nil(t, a.User())
	assert.Nil(t, store.cred)
}

func TestAuthNeverHoldsPartialIdentity(t *testing.T) {
	a := NewAuth(nil, zerolog.New(io.Discard))
	ctx := context.Background()

	err := a.Apply(ctx, models.Credential{Token: "abc"})
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.False(t, a.IsAuthenticated())

	err = a.Apply(ctx, models.Credential{User: models.User{ID: 9}})
	require.ErrorIs(t, err, ErrInvalidCredential)
	assert.False(t, a.IsAuthenticated())

	// Token and user are always observed together.
	require.NoError(t, a.Apply(ctx, testCred()))
	assert.Equal(t, a.Token() != "", a.User() != nil)
}

func TestAuthRestore(t *testing.T) {
	ctx := context.Background()
	cred := testCred()

	t.Run("restores persisted credential", func(t *testing.T) {
		a := NewAuth(&memoryCredStore{cred: &cred}, zerolog.New(io.Discard))
		require.NoError(t, a.Restore(ctx))
		assert.Equal(t, "abc", a.Token())
	})

	t.Run("nothing persisted", func(t *testing.T) {
		a := NewAuth(&memoryCredStore{}, zerolog.New(io.Discard))
		require.NoError(t, a.Restore(ctx))
		assert.False(t, a.IsAuthenticated())
	})

	t.Run("invalid persisted credential ignored", func(t *testing.T) {
		partial := models.Credential{Token: "abc"}
		a := NewAuth(&memoryCredStore{cred: &partial}, zerolog.New(io.Discard))
		require.NoError(t, a.Restore(ctx))
		assert.False(t, a.IsAuthenticated())
	})

	t.Run("store error propagates", func(t *testing.T) {
		a := NewAuth(&memoryCredStore{loadErr: errors.New("disk gone")}, zerolog.New(io.Discard))
		assert.Error(t, a.Restore(ctx))
	})
}

func TestAuthApplySurvivesStoreFailure(t *testing.T) {
	store := &memoryCredStore{saveErr: errors.New("disk full")}
	a := NewAuth(store, zerolog.New(io.Discard))

	// Persistence is best-effort; the in-memory session still updates.
	require.NoError(t, a.Apply(context.Background(), testCred()))
	assert.True(t, a.IsAuthenticated())
}
