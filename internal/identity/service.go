package identity

import (
	"context"
	"log/slog"

	"github.com/apptrail/storefront/internal/domain"
)

// Provider is the slice of the provider client the service depends on.
type Provider interface {
	Register(ctx context.Context, in RegisterInput) (domain.User, error)
	Login(ctx context.Context, in LoginInput) (domain.User, error)
	LoginWithProvider(ctx context.Context, in ProviderLoginInput) (domain.User, error)
	UpdateProfile(ctx context.Context, uid string, in ProfileUpdate) (domain.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	Logout(ctx context.Context, uid string)
}

// SessionEnded is called when a session is revoked so per-session storefront
// state (votes, composer) can be dropped with it.
type SessionEnded func(sessionID string)

// Service wires the provider client to the local session manager. Every
// account flow is delegated to the provider; only the session itself is
// owned here.
type Service struct {
	provider Provider
	sessions *SessionManager
	onEnd    []SessionEnded
	logger   *slog.Logger
}

// NewService creates the identity service.
func NewService(provider Provider, sessions *SessionManager, logger *slog.Logger) *Service {
	return &Service{
		provider: provider,
		sessions: sessions,
		logger:   logger,
	}
}

// OnSessionEnded registers a teardown hook run on every revocation.
func (s *Service) OnSessionEnded(fn SessionEnded) {
	s.onEnd = append(s.onEnd, fn)
}

// Sessions exposes the session manager for token validation on routes.
func (s *Service) Sessions() *SessionManager { return s.sessions }

// Register creates a provider account and signs the new user in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (Session, error) {
	user, err := s.provider.Register(ctx, in)
	if err != nil {
		return Session{}, err
	}
	s.logger.InfoContext(ctx, "account registered", slog.String("uid", user.UID))
	return s.sessions.Create(user)
}

// Login exchanges credentials for a session.
func (s *Service) Login(ctx context.Context, in LoginInput) (Session, error) {
	user, err := s.provider.Login(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.sessions.Create(user)
}

// LoginWithProvider exchanges a federated token for a session.
func (s *Service) LoginWithProvider(ctx context.Context, in ProviderLoginInput) (Session, error) {
	user, err := s.provider.LoginWithProvider(ctx, in)
	if err != nil {
		return Session{}, err
	}
	return s.sessions.Create(user)
}

// Logout revokes the session and its per-session storefront state. The
// provider-side revocation is best effort.
func (s *Service) Logout(ctx context.Context, sessionID string) {
	if user, err := s.sessions.UserFor(sessionID); err == nil {
		s.provider.Logout(ctx, user.UID)
	}
	s.sessions.Revoke(sessionID)
	for _, fn := range s.onEnd {
		fn(sessionID)
	}
}

// Profile returns the account bound to the session.
func (s *Service) Profile(sessionID string) (domain.User, error) {
	return s.sessions.UserFor(sessionID)
}

// UpdateProfile pushes a profile change to the provider and refreshes the
// session's account snapshot.
func (s *Service) UpdateProfile(ctx context.Context, sessionID string, in ProfileUpdate) (domain.User, error) {
	current, err := s.sessions.UserFor(sessionID)
	if err != nil {
		return domain.User{}, err
	}

	updated, err := s.provider.UpdateProfile(ctx, current.UID, in)
	if err != nil {
		return domain.User{}, err
	}

	s.sessions.UpdateUser(sessionID, updated)
	return updated, nil
}

// RequestPasswordReset relays a reset request to the provider.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	return s.provider.RequestPasswordReset(ctx, email)
}
