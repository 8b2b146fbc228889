package service

import (
	"context"

	"github.com/rs/zerolog"

	"shifa/internal/api"
	"shifa/internal/events"
	"shifa/internal/metrics"
	"shifa/internal/models"
	"shifa/internal/phone"
	"shifa/internal/session"
)

// AuthGateway is the slice of the API client the auth flow needs.
type AuthGateway interface {
	Login(ctx context.Context, req api.LoginRequest) (*models.Credential, error)
	Register(ctx context.Context, req api.RegisterRequest) (*models.Credential, error)
	Logout(ctx context.Context) error
}

// AuthFlow performs explicit auth operations. The booking flow's token
// side channel goes through the same session, so the all-or-nothing rule
// holds on every path.
type AuthFlow struct {
	gateway AuthGateway
	auth    *session.Auth
	bus     *events.Bus
	logger  zerolog.Logger
}

// NewAuthFlow wires the flow to its collaborators.
func NewAuthFlow(gateway AuthGateway, auth *session.Auth, bus *events.Bus, logger zerolog.Logger) *AuthFlow {
	return &AuthFlow{gateway: gateway, auth: auth, bus: bus, logger: logger}
}

// Login authenticates by phone and password.
func (f *AuthFlow) Login(ctx context.Context, rawPhone, password string) (*models.User, error) {
	if !phone.Valid(rawPhone) {
		return nil, ErrInvalidPhone
	}
	cred, err := f.gateway.Login(ctx, api.LoginRequest{
		Phone:    phone.Normalize(rawPhone),
		Password: password,
	})
	if err != nil {
		return nil, recordAPIError(err)
	}
	if err := f.auth.Apply(ctx, *cred); err != nil {
		return nil, err
	}
	metrics.IncAuthEvent("login")
	user := cred.User
	return &user, nil
}

// Register creates an account and signs it in.
func (f *AuthFlow) Register(ctx context.Context, name, rawPhone, email, password string) (*models.User, error) {
	if !phone.Valid(rawPhone) {
		return nil, ErrInvalidPhone
	}
	cred, err := f.gateway.Register(ctx, api.RegisterRequest{
		Name:     name,
		Phone:    phone.Normalize(rawPhone),
		Email:    email,
		Password: password,
	})
	if err != nil {
		return nil, recordAPIError(err)
	}
	if err := f.auth.Apply(ctx, *cred); err != nil {
		return nil, err
	}
	metrics.IncAuthEvent("register")
	user := cred.User
	return &user, nil
}

// Logout is two independent steps: a best-effort remote invalidation, then
// an unconditional local clear. The user's intent to leave is always
// honored locally even when the gateway is unreachable.
func (f *AuthFlow) Logout(ctx context.Context) {
	if err := f.gateway.Logout(ctx); err != nil {
		f.logger.Warn().Err(err).Msg("remote logout failed, clearing local session anyway")
		_ = recordAPIError(err)
	}
	f.auth.Clear(ctx)
	metrics.IncAuthEvent("logout")
	f.bus.Publish(events.Event{Type: events.TypeLoggedOut})
}

// ForcedLogout reacts to a 401 from any endpoint: the local session is
// cleared without a remote call.
func (f *AuthFlow) ForcedLogout(ctx context.Context) {
	f.auth.Clear(ctx)
	metrics.IncAuthEvent("forced_logout")
	f.bus.Publish(events.Event{Type: events.TypeLoggedOut})
}
