package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/apptrail/storefront/internal/domain"
	apperrors "github.com/apptrail/storefront/pkg/errors"
)

// Doer issues requests to the identity provider. Satisfied by
// httpclient.CircuitBreakerClient.
type Doer interface {
	Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error)
}

// Client talks to the external identity provider. All credential handling
// lives on the provider side; this client only relays requests and maps
// responses.
type Client struct {
	http    Doer
	baseURL string
	apiKey  string
	logger  *slog.Logger
}

// NewClient creates an identity provider client.
func NewClient(http Doer, baseURL, apiKey string, logger *slog.Logger) *Client {
	return &Client{
		http:    http,
		baseURL: baseURL,
		apiKey:  apiKey,
		logger:  logger,
	}
}

// RegisterInput is an email and password registration request.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

// LoginInput is an email and password sign-in request.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProviderLoginInput carries a federated provider token (e.g. Google).
type ProviderLoginInput struct {
	Provider string `json:"provider" validate:"required,oneof=google"`
	IDToken  string `json:"id_token" validate:"required"`
}

// ProfileUpdate carries the mutable profile fields.
type ProfileUpdate struct {
	DisplayName string `json:"display_name" validate:"required,min=2,max=64"`
	PhotoURL    string `json:"photo_url" validate:"omitempty,url"`
}

// providerUser is the provider's account representation on the wire.
type providerUser struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoURL"`
}

func (u providerUser) toDomain() domain.User {
	return domain.User{
		UID:         u.UID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		PhotoURL:    u.PhotoURL,
	}
}

// Register creates an account with the provider.
func (c *Client) Register(ctx context.Context, in RegisterInput) (domain.User, error) {
	return c.userCall(ctx, "/v1/accounts:signUp", map[string]string{
		"email":       in.Email,
		"password":    in.Password,
		"displayName": in.DisplayName,
		"photoURL":    in.PhotoURL,
	})
}

// Login authenticates email and password credentials with the provider.
func (c *Client) Login(ctx context.Context, in LoginInput) (domain.User, error) {
	return c.userCall(ctx, "/v1/accounts:signInWithPassword", map[string]string{
		"email":    in.Email,
		"password": in.Password,
	})
}

// LoginWithProvider exchanges a federated identity token for an account.
func (c *Client) LoginWithProvider(ctx context.Context, in ProviderLoginInput) (domain.User, error) {
	return c.userCall(ctx, "/v1/accounts:signInWithIdp", map[string]string{
		"provider": in.Provider,
		"idToken":  in.IDToken,
	})
}

// UpdateProfile changes the account's display name and photo.
func (c *Client) UpdateProfile(ctx context.Context, uid string, in ProfileUpdate) (domain.User, error) {
	return c.userCall(ctx, "/v1/accounts:update", map[string]string{
		"uid":         uid,
		"displayName": in.DisplayName,
		"photoURL":    in.PhotoURL,
	})
}

// RequestPasswordReset asks the provider to send a reset email. The provider
// does not reveal whether the address exists.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	resp, err := c.post(ctx, "/v1/accounts:sendOobCode", map[string]string{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.providerError(resp)
	}
	return nil
}

// Logout revokes the provider-side refresh tokens for the account. Failures
// are logged and swallowed; the local session is revoked regardless.
func (c *Client) Logout(ctx context.Context, uid string) {
	resp, err := c.post(ctx, "/v1/accounts:revokeTokens", map[string]string{"uid": uid})
	if err != nil {
		c.logger.WarnContext(ctx, "provider token revocation failed",
			slog.String("error", err.Error()),
		)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.WarnContext(ctx, "provider token revocation rejected",
			slog.Int("status", resp.StatusCode),
		)
	}
}

func (c *Client) userCall(ctx context.Context, path string, payload map[string]string) (domain.User, error) {
	resp, err := c.post(ctx, path, payload)
	if err != nil {
		return domain.User{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.User{}, c.providerError(resp)
	}

	var user providerUser
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return domain.User{}, apperrors.Provider(http.StatusBadGateway, "identity provider returned an unreadable response")
	}
	return user.toDomain(), nil
}

func (c *Client) post(ctx context.Context, path string, payload map[string]string) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("encode provider request: %w", err))
	}

	url := c.baseURL + path
	if c.apiKey != "" {
		url += "?key=" + c.apiKey
	}

	resp, err := c.http.Post(ctx, url, "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Provider(http.StatusBadGateway, "identity provider unreachable")
	}
	return resp, nil
}

// providerError maps a non-OK provider response to a PROVIDER_ERROR carrying
// the provider's own message verbatim.
func (c *Client) providerError(resp *http.Response) error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}

	msg := "identity provider request failed"
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err == nil {
		switch {
		case body.Error.Message != "":
			msg = body.Error.Message
		case body.Message != "":
			msg = body.Message
		}
	}
	return apperrors.Provider(resp.StatusCode, msg)
}
