package identity

import (
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/apptrail/storefront/internal/domain"
	apperrors "github.com/apptrail/storefront/pkg/errors"
	"github.com/apptrail/storefront/pkg/middleware"
)

// Session is an active signed-in session minted after a successful provider
// exchange.
type Session struct {
	ID        string      `json:"id"`
	User      domain.User `json:"user"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
}

type sessionClaims struct {
	UserID string `json:"uid"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	jwt.RegisteredClaims
}

// SessionManager mints session tokens locally and tracks which ones are still
// live, so logout revokes a token before its expiry. Sessions are in memory
// only; a restart signs everyone out.
type SessionManager struct {
	secret []byte
	expiry time.Duration

	mu    sync.RWMutex
	users map[string]domain.User // session ID -> account
}

// NewSessionManager creates a session manager signing with the given secret.
func NewSessionManager(secret []byte, expiry time.Duration) *SessionManager {
	return &SessionManager{
		secret: secret,
		expiry: expiry,
		users:  make(map[string]domain.User),
	}
}

// Create mints a session for a provider-verified account.
func (m *SessionManager) Create(user domain.User) (Session, error) {
	sessionID := uuid.New().String()
	now := time.Now()
	expiresAt := now.Add(m.expiry)

	claims := sessionClaims{
		UserID: user.UID,
		Email:  user.Email,
		Name:   user.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        sessionID,
			Subject:   user.UID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    "apptrail-storefront",
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return Session{}, apperrors.Internal(fmt.Errorf("sign session token: %w", err))
	}

	m.mu.Lock()
	m.users[sessionID] = user
	m.mu.Unlock()

	return Session{ID: sessionID, User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// Validate checks a token's signature and expiry and that the session has not
// been revoked. It is the TokenValidator mounted on authenticated routes.
func (m *SessionManager) Validate(token string) (*middleware.SessionClaims, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, apperrors.AuthRequired("invalid or expired session")
	}

	m.mu.RLock()
	_, live := m.users[claims.ID]
	m.mu.RUnlock()
	if !live {
		return nil, apperrors.AuthRequired("session revoked")
	}

	return &middleware.SessionClaims{
		SessionID: claims.ID,
		UserID:    claims.UserID,
		Email:     claims.Email,
		Name:      claims.Name,
	}, nil
}

// UserFor returns the account bound to a live session.
func (m *SessionManager) UserFor(sessionID string) (domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[sessionID]
	if !ok {
		return domain.User{}, apperrors.AuthRequired("session revoked")
	}
	return user, nil
}

// UpdateUser refreshes the account snapshot bound to a live session after a
// profile change.
func (m *SessionManager) UpdateUser(sessionID string, user domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[sessionID]; ok {
		m.users[sessionID] = user
	}
}

// Revoke ends a session. Its token fails validation from here on even though
// the JWT itself has not expired.
func (m *SessionManager) Revoke(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.users, sessionID)
}
