package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/apptrail/storefront/internal/catalog"
	"github.com/apptrail/storefront/internal/domain"
	"github.com/apptrail/storefront/internal/review"
	"github.com/apptrail/storefront/pkg/httputil"
	"github.com/apptrail/storefront/pkg/middleware"
	"github.com/apptrail/storefront/pkg/pagination"
)

// InstallEvents is the publisher slice the app handler needs.
type InstallEvents interface {
	AppInstalled(ctx context.Context, appID, userID string) error
}

// AppHandler handles HTTP requests for catalog endpoints.
type AppHandler struct {
	store    *catalog.Store
	installs *catalog.Installs
	reviews  *review.Service
	events   InstallEvents

	limits HomeLimits
	logger *slog.Logger
}

// HomeLimits caps the curated catalog views.
type HomeLimits struct {
	Slider     int
	Trending   int
	NewRelease int
	Featured   int
}

// NewAppHandler creates a new catalog HTTP handler. events may be nil.
func NewAppHandler(
	store *catalog.Store,
	installs *catalog.Installs,
	reviews *review.Service,
	events InstallEvents,
	limits HomeLimits,
	logger *slog.Logger,
) *AppHandler {
	return &AppHandler{
		store:    store,
		installs: installs,
		reviews:  reviews,
		events:   events,
		limits:   limits,
		logger:   logger,
	}
}

// appSummary is the list projection of an app, without its review payload.
type appSummary struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Developer string  `json:"developer"`
	Category  string  `json:"category"`
	Thumbnail string  `json:"thumbnail"`
	Rating    float64 `json:"rating"`
	Downloads int64   `json:"downloads"`
}

func summarize(apps []domain.App) []appSummary {
	out := make([]appSummary, len(apps))
	for i, a := range apps {
		out[i] = appSummary{
			ID:        a.ID,
			Name:      a.Name,
			Developer: a.Developer,
			Category:  a.Category,
			Thumbnail: a.Thumbnail,
			Rating:    a.Rating,
			Downloads: a.Downloads,
		}
	}
	return out
}

// ListApps handles GET /api/v1/apps
// @Summary List catalog apps
// @Description Returns the catalog, optionally narrowed by category and name search
// @Tags apps
// @Produce json
// @Param category query string false "Category filter"
// @Param q query string false "Name or developer search"
// @Success 200 {object} map[string]interface{}
// @Router /api/v1/apps [get]
func (h *AppHandler) ListApps(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ready(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	var apps []domain.App
	if category := r.URL.Query().Get("category"); category != "" {
		apps = h.store.ByCategory(category)
	} else {
		apps = h.store.Apps()
	}

	if q := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("q"))); q != "" {
		var matched []domain.App
		for _, a := range apps {
			if strings.Contains(strings.ToLower(a.Name), q) ||
				strings.Contains(strings.ToLower(a.Developer), q) {
				matched = append(matched, a)
			}
		}
		apps = matched
	}

	params := pagination.FromRequest(r)
	if params.Page > pagination.PageCount(len(apps), params.PerPage) {
		params.Page = 1
	}
	page := pagination.Page(apps, params.Page, params.PerPage)

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: pagination.NewResult(summarize(page), len(apps), params),
	})
}

// GetApp handles GET /api/v1/apps/{id}
// @Summary Get app details
// @Description Returns one app with its reviews and the session's install state
// @Tags apps
// @Produce json
// @Param id path string true "App ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /api/v1/apps/{id} [get]
func (h *AppHandler) GetApp(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "id")
	sessionID := middleware.SessionIDFromContext(r.Context())

	app, err := h.store.ByID(appID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	reviews, err := h.reviews.AppReviews(sessionID, appID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{
			"app":       app,
			"reviews":   reviews,
			"stats":     review.Stats(reviews),
			"installed": h.installs.Installed(sessionID, appID),
		},
	})
}

// InstallApp handles POST /api/v1/apps/{id}/install
// @Summary Toggle app installation
// @Description Toggles the session's install state for an app
// @Tags apps
// @Produce json
// @Param id path string true "App ID"
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]interface{}
// @Router /api/v1/apps/{id}/install [post]
func (h *AppHandler) InstallApp(w http.ResponseWriter, r *http.Request) {
	appID := chi.URLParam(r, "id")
	sessionID := middleware.SessionIDFromContext(r.Context())

	app, err := h.store.ByID(appID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	installed := h.installs.Toggle(sessionID, app.ID)

	if installed && h.events != nil {
		if err := h.events.AppInstalled(r.Context(), app.ID, middleware.UserIDFromContext(r.Context())); err != nil {
			h.logger.WarnContext(r.Context(), "failed to publish app installed event",
				slog.String("app_id", app.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{"app_id": app.ID, "installed": installed},
	})
}

// Home handles GET /api/v1/home
func (h *AppHandler) Home(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ready(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: map[string]any{
			"slider":       summarize(h.store.Slider(h.limits.Slider)),
			"trending":     summarize(h.store.Trending(h.limits.Trending)),
			"new_releases": summarize(h.store.NewReleases(h.limits.NewRelease)),
			"categories":   h.store.Categories(),
		},
	})
}

// Featured handles GET /api/v1/featured
func (h *AppHandler) Featured(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ready(); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: summarize(h.store.Featured(h.limits.Featured)),
	})
}
