package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/apptrail/storefront/internal/domain"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockProvider) Login(ctx context.Context, in LoginInput) (domain.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockProvider) LoginWithProvider(ctx context.Context, in ProviderLoginInput) (domain.User, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockProvider) UpdateProfile(ctx context.Context, uid string, in ProfileUpdate) (domain.User, error) {
	args := m.Called(ctx, uid, in)
	return args.Get(0).(domain.User), args.Error(1)
}

func (m *mockProvider) RequestPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *mockProvider) Logout(ctx context.Context, uid string) {
	m.Called(ctx, uid)
}

func newTestIdentity(t *testing.T) (*Service, *mockProvider) {
	t.Helper()
	provider := new(mockProvider)
	mgr := NewSessionManager(testSecret, time.Hour)
	return NewService(provider, mgr, testLogger()), provider
}

func TestService_Login_MintsSession(t *testing.T) {
	svc, provider := newTestIdentity(t)
	provider.On("Login", mock.Anything, LoginInput{Email: "alice@example.com", Password: "hunter22"}).
		Return(testUser(), nil)

	session, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	claims, err := svc.Sessions().Validate(session.Token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)

	provider.AssertExpectations(t)
}

func TestService_Login_ProviderFailureMintsNothing(t *testing.T) {
	svc, provider := newTestIdentity(t)
	provider.On("Login", mock.Anything, mock.Anything).
		Return(domain.User{}, errors.New("INVALID_PASSWORD"))

	_, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "wrong"})
	assert.Error(t, err)
}

func TestService_Register_MintsSession(t *testing.T) {
	svc, provider := newTestIdentity(t)
	provider.On("Register", mock.Anything, mock.Anything).Return(testUser(), nil)

	session, err := svc.Register(context.Background(), RegisterInput{
		Email: "alice@example.com", Password: "hunter22", DisplayName: "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", session.User.DisplayName)
}

func TestService_Logout_RevokesAndRunsHooks(t *testing.T) {
	svc, provider := newTestIdentity(t)
	provider.On("Login", mock.Anything, mock.Anything).Return(testUser(), nil)
	provider.On("Logout", mock.Anything, "u1").Return()

	var endedSession string
	svc.OnSessionEnded(func(sessionID string) { endedSession = sessionID })

	session, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	svc.Logout(context.Background(), session.ID)

	assert.Equal(t, session.ID, endedSession)
	_, err = svc.Sessions().Validate(session.Token)
	assert.Error(t, err)
	provider.AssertExpectations(t)
}

func TestService_UpdateProfile_RefreshesSessionSnapshot(t *testing.T) {
	svc, provider := newTestIdentity(t)
	provider.On("Login", mock.Anything, mock.Anything).Return(testUser(), nil)

	updated := testUser()
	updated.DisplayName = "Alice B"
	provider.On("UpdateProfile", mock.Anything, "u1", ProfileUpdate{DisplayName: "Alice B"}).
		Return(updated, nil)

	session, err := svc.Login(context.Background(), LoginInput{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	user, err := svc.UpdateProfile(context.Background(), session.ID, ProfileUpdate{DisplayName: "Alice B"})
	require.NoError(t, err)
	assert.Equal(t, "Alice B", user.DisplayName)

	profile, err := svc.Profile(session.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice B", profile.DisplayName)
}

func TestService_RequestPasswordReset_Delegates(t *testing.T) {
	svc, provider := newTestIdentity(t)
	provider.On("RequestPasswordReset", mock.Anything, "alice@example.com").Return(nil)

	require.NoError(t, svc.RequestPasswordReset(context.Background(), "alice@example.com"))
	provider.AssertExpectations(t)
}
