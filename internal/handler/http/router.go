package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/apptrail/storefront/internal/catalog"
	"github.com/apptrail/storefront/internal/identity"
	"github.com/apptrail/storefront/internal/review"
	"github.com/apptrail/storefront/pkg/health"
	"github.com/apptrail/storefront/pkg/middleware"
)

// RouterConfig carries the routing-relevant parts of the service
// configuration.
type RouterConfig struct {
	ServiceName    string
	Environment    string
	AllowedOrigins []string
	Limits         HomeLimits
}

// NewRouter creates a chi router with all storefront routes registered.
// installEvents and regEvents may be nil when event publishing is disabled.
func NewRouter(
	cfg RouterConfig,
	store *catalog.Store,
	installs *catalog.Installs,
	reviewService *review.Service,
	identityService *identity.Service,
	installEvents InstallEvents,
	regEvents RegistrationEvents,
	healthHandler *health.Handler,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Environment:    cfg.Environment,
	}))
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics(cfg.ServiceName))
	r.Use(middleware.RequestLogger(logger))

	requireSession := middleware.Auth(identityService.Sessions().Validate)
	optionalSession := middleware.OptionalAuth(identityService.Sessions().Validate)

	// Health and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Catalog API endpoints
	appHandler := NewAppHandler(store, installs, reviewService, installEvents,
		cfg.Limits, logger)

	r.Get("/api/v1/home", appHandler.Home)
	r.Get("/api/v1/featured", appHandler.Featured)

	r.Route("/api/v1/apps", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Get("/", appHandler.ListApps)

		// The detail page and install toggle need a session.
		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Get("/{id}", appHandler.GetApp)
			r.Post("/{id}/install", appHandler.InstallApp)
		})
	})

	// Review API endpoints
	reviewHandler := NewReviewHandler(reviewService, identityService, logger)

	r.Route("/api/v1/reviews", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		// The list is public; a presented session gets its vote deltas
		// applied to the display counts.
		r.With(optionalSession).Get("/", reviewHandler.ListReviews)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Post("/", reviewHandler.SubmitReview)
			r.Post("/{id}/vote", reviewHandler.VoteReview)
			r.Get("/composer", reviewHandler.ComposerState)
			r.Post("/composer", reviewHandler.ComposerTransition)
		})
	})

	// Account API endpoints
	authHandler := NewAuthHandler(identityService, regEvents, logger)

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Post("/provider", authHandler.LoginWithProvider)
		r.Post("/password-reset", authHandler.PasswordReset)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Post("/logout", authHandler.Logout)
			r.Get("/profile", authHandler.Profile)
			r.Put("/profile", authHandler.UpdateProfile)
		})
	})

	return r
}
