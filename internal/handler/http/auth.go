package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/apptrail/storefront/internal/domain"
	"github.com/apptrail/storefront/internal/identity"
	"github.com/apptrail/storefront/pkg/httputil"
	"github.com/apptrail/storefront/pkg/middleware"
	"github.com/apptrail/storefront/pkg/validator"
)

// RegistrationEvents is the publisher slice the auth handler needs.
type RegistrationEvents interface {
	UserRegistered(ctx context.Context, user domain.User) error
}

// AuthHandler handles HTTP requests for account flows. Credential handling
// lives entirely with the identity provider; these endpoints relay and mint
// sessions.
type AuthHandler struct {
	service *identity.Service
	events  RegistrationEvents
	logger  *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler. events may be nil.
func NewAuthHandler(svc *identity.Service, events RegistrationEvents, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service: svc,
		events:  events,
		logger:  logger,
	}
}

// PasswordResetRequest is the JSON request body for a reset email.
type PasswordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Register handles POST /api/v1/auth/register
// @Summary Register an account
// @Description Creates a provider account and returns a session token
// @Tags auth
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req identity.RegisterInput
	if err := h.decode(w, r, &req); err != nil {
		return
	}

	session, err := h.service.Register(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if h.events != nil {
		if err := h.events.UserRegistered(r.Context(), session.User); err != nil {
			h.logger.WarnContext(r.Context(), "failed to publish user registered event",
				slog.String("uid", session.User.UID),
				slog.String("error", err.Error()),
			)
		}
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: session})
}

// Login handles POST /api/v1/auth/login
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req identity.LoginInput
	if err := h.decode(w, r, &req); err != nil {
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// LoginWithProvider handles POST /api/v1/auth/provider
// @Summary Sign in with a federated provider token
// @Tags auth
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/auth/provider [post]
func (h *AuthHandler) LoginWithProvider(w http.ResponseWriter, r *http.Request) {
	var req identity.ProviderLoginInput
	if err := h.decode(w, r, &req); err != nil {
		return
	}

	session, err := h.service.LoginWithProvider(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: session})
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())
	h.service.Logout(r.Context(), sessionID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "signed_out"}})
}

// Profile handles GET /api/v1/auth/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())

	user, err := h.service.Profile(sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// UpdateProfile handles PUT /api/v1/auth/profile
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())

	var req identity.ProfileUpdate
	if err := h.decode(w, r, &req); err != nil {
		return
	}

	user, err := h.service.UpdateProfile(r.Context(), sessionID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// PasswordReset handles POST /api/v1/auth/password-reset
func (h *AuthHandler) PasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := h.decode(w, r, &req); err != nil {
		return
	}

	if err := h.service.RequestPasswordReset(r.Context(), req.Email); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{"status": "reset_email_sent"}})
}

func (h *AuthHandler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	err := validator.DecodeAndValidate(r, dst)
	if err == nil {
		return nil
	}
	var vErr *validator.ValidationError
	if errors.As(err, &vErr) {
		httputil.WriteValidationError(w, err)
	} else {
		httputil.WriteError(w, r, err, h.logger)
	}
	return err
}
