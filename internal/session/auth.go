package session

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"shifa/internal/models"
)

// ErrInvalidCredential rejects a credential missing either the token or the
// user identity: the two are set and cleared strictly together.
var ErrInvalidCredential = errors.New("credential must carry both token and user")

// CredentialStore persists the auth credential across restarts. Load
// returns nil without error when nothing is stored.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (*models.Credential, error)
	SaveCredential(ctx context.Context, cred models.Credential) error
	ClearCredential(ctx context.Context) error
}

// Auth holds the bearer credential. It can be populated by an explicit
// login or register, or as a side effect of a booking submission that
// auto-registered a guest; either way token and user arrive together.
type Auth struct {
	mu     sync.Mutex
	cred   *models.Credential
	store  CredentialStore
	logger zerolog.Logger
}

// NewAuth returns an empty auth session. store may be nil, in which case
// the credential lives only in memory.
func NewAuth(store CredentialStore, logger zerolog.Logger) *Auth {
	return &Auth{store: store, logger: logger}
}

// Restore loads a previously persisted credential, if any.
func (a *Auth) Restore(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	cred, err := a.store.LoadCredential(ctx)
	if err != nil {
		return err
	}
	if cred == nil || !cred.Valid() {
		return nil
	}
	a.mu.Lock()
	a.cred = cred
	a.mu.Unlock()
	return nil
}

// Apply sets token and user in one step and persists them. A credential
// missing either half is rejected so the session never holds a partial
// identity.
func (a *Auth) Apply(ctx context.Context, cred models.Credential) error {
	if !cred.Valid() {
		return ErrInvalidCredential
	}

	a.mu.Lock()
	a.cred = &cred
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.SaveCredential(ctx, cred); err != nil {
			// In-memory state already changed; persistence catches up on
			// the next Apply.
			a.logger.Warn().Err(err).Msg("persist credential failed")
		}
	}
	return nil
}

// Clear drops token and user together, unconditionally.
func (a *Auth) Clear(ctx context.Context) {
	a.mu.Lock()
	a.cred = nil
	a.mu.Unlock()

	if a.store != nil {
		if err := a.store.ClearCredential(ctx); err != nil {
			a.logger.Warn().Err(err).Msg("clear persisted credential failed")
		}
	}
}

// Token returns the bearer token, empty for guests.
func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cred == nil {
		return ""
	}
	return a.cred.Token
}

// User returns a copy of the identity, nil for guests.
func (a *Auth) User() *models.User {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cred == nil {
		return nil
	}
	u := a.cred.User
	return &u
}

// IsAuthenticated reports whether a credential is present. Validity is
// enforced server-side: any 401 clears the session via Clear.
func (a *Auth) IsAuthenticated() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cred != nil
}
