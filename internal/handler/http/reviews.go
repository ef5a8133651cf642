package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/apptrail/storefront/internal/identity"
	"github.com/apptrail/storefront/internal/review"
	"github.com/apptrail/storefront/pkg/httputil"
	"github.com/apptrail/storefront/pkg/middleware"
	"github.com/apptrail/storefront/pkg/pagination"
	"github.com/apptrail/storefront/pkg/validator"
)

// ReviewHandler handles HTTP requests for the review endpoints.
type ReviewHandler struct {
	service  *review.Service
	identity *identity.Service
	logger   *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(svc *review.Service, identitySvc *identity.Service, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service:  svc,
		identity: identitySvc,
		logger:   logger,
	}
}

// --- Request DTOs ---

// VoteRequest is the JSON request body for a vote toggle.
type VoteRequest struct {
	Direction string `json:"direction" validate:"required,oneof=up down"`
}

// ComposerRequest is the JSON request body for a composer transition.
type ComposerRequest struct {
	Action string `json:"action" validate:"required,oneof=open cancel retry"`
}

// --- Handlers ---

// ListReviews handles GET /api/v1/reviews
// @Summary List reviews across all apps
// @Description Returns one page of the aggregated review collection after
// rating filter, text search, and sort, plus the overall rating summary
// @Tags reviews
// @Produce json
// @Param rating query int false "Star filter (1-5, 0 for all)"
// @Param q query string false "Text search"
// @Param sort query string false "Sort order" Enums(newest, oldest, highest, lowest, mostHelpful)
// @Param page query int false "Page number" default(1)
// @Param per_page query int false "Items per page (max 100)" default(6)
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /api/v1/reviews [get]
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	query := review.ListQuery{
		Filter: review.Filter{
			Query: r.URL.Query().Get("q"),
			Sort:  review.ParseSortKey(r.URL.Query().Get("sort")),
		},
		Page: pagination.FromRequest(r),
	}
	if v := r.URL.Query().Get("rating"); v != "" {
		if rating, err := strconv.Atoi(v); err == nil && rating >= 1 && rating <= 5 {
			query.Filter.Rating = rating
		}
	}

	sessionID := middleware.SessionIDFromContext(r.Context())

	result, err := h.service.List(r.Context(), sessionID, query)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// SubmitReview handles POST /api/v1/reviews
// @Summary Submit a review
// @Description Appends a review to an app on behalf of the signed-in user
// @Tags reviews
// @Accept json
// @Produce json
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/reviews [post]
func (h *ReviewHandler) SubmitReview(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())

	user, err := h.identity.Profile(sessionID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var req review.SubmitInput
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		var vErr *validator.ValidationError
		if errors.As(err, &vErr) {
			httputil.WriteValidationError(w, err)
			return
		}
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	submitted, err := h.service.Submit(r.Context(), user, sessionID, req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: submitted})
}

// VoteReview handles POST /api/v1/reviews/{id}/vote
// @Summary Toggle a helpfulness vote
// @Tags reviews
// @Accept json
// @Produce json
// @Param id path string true "Review ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/reviews/{id}/vote [post]
func (h *ReviewHandler) VoteReview(w http.ResponseWriter, r *http.Request) {
	reviewID := chi.URLParam(r, "id")
	sessionID := middleware.SessionIDFromContext(r.Context())

	var req VoteRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	dir, err := review.ParseVoteDirection(req.Direction)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	result, err := h.service.Vote(r.Context(), sessionID, reviewID, dir)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// ComposerState handles GET /api/v1/reviews/composer
func (h *ReviewHandler) ComposerState(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"state": h.service.ComposerFor(sessionID)},
	})
}

// ComposerTransition handles POST /api/v1/reviews/composer
func (h *ReviewHandler) ComposerTransition(w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.SessionIDFromContext(r.Context())

	var req ComposerRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	state, err := h.service.ComposerApply(sessionID, review.ComposerAction(req.Action))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"state": state},
	})
}
