package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/apptrail/storefront/internal/catalog"
	"github.com/apptrail/storefront/internal/config"
	"github.com/apptrail/storefront/internal/event"
	handler "github.com/apptrail/storefront/internal/handler/http"
	"github.com/apptrail/storefront/internal/identity"
	"github.com/apptrail/storefront/internal/review"
	"github.com/apptrail/storefront/pkg/health"
	"github.com/apptrail/storefront/pkg/httpclient"
	pkgkafka "github.com/apptrail/storefront/pkg/kafka"
	"github.com/apptrail/storefront/pkg/tracing"
)

// App wires together all dependencies and runs the storefront service.
type App struct {
	cfg    *config.Config
	logger *slog.Logger

	store      *catalog.Store
	loader     *catalog.Loader
	redis      *redis.Client
	producer   *pkgkafka.Producer
	httpServer *http.Server

	shutdownTracer func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Tracing.
	shutdownTracer, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:  cfg.ServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.Tracing.Endpoint,
		SampleRate:   1.0,
		Enabled:      cfg.Tracing.Enabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Redis-backed catalog document cache, optional.
	var redisClient *redis.Client
	var cache *catalog.Cache
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		cache = catalog.NewCache(redisClient, cfg.Catalog.CacheTTL)
		logger.Info("catalog cache initialized", slog.String("addr", cfg.Redis.Addr))
	}

	// Catalog loader behind a circuit breaker.
	catalogClient := httpclient.NewCircuitBreakerClient(
		httpclient.New(httpclient.DefaultConfig()),
		httpclient.DefaultCircuitBreakerConfig("catalog"),
		logger,
	)
	store := catalog.NewStore()
	loader := catalog.NewLoader(catalogClient, cache, cfg.Catalog.URL, logger)

	// Kafka event publisher, optional.
	var producer *pkgkafka.Producer
	var publisher *event.Publisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.Kafka.Brokers), logger)
		publisher = event.NewPublisher(producer)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.Kafka.Brokers))
	}

	// Review pipeline and session state.
	var reviewEvents review.Events
	if publisher != nil {
		reviewEvents = publisher
	}
	reviewService := review.NewService(store, reviewEvents, logger)
	installs := catalog.NewInstalls()

	// Identity provider client behind its own breaker.
	identityHTTP := httpclient.New(httpclient.Config{
		Timeout:         cfg.Identity.Timeout,
		MaxRetries:      2,
		RetryWaitMin:    250 * time.Millisecond,
		RetryWaitMax:    2 * time.Second,
		MaxConnsPerHost: 50,
	})
	identityClient := identity.NewClient(
		httpclient.NewCircuitBreakerClient(identityHTTP, httpclient.DefaultCircuitBreakerConfig("identity"), logger),
		cfg.Identity.BaseURL,
		cfg.Identity.APIKey,
		logger,
	)
	sessions := identity.NewSessionManager([]byte(cfg.Session.Secret), cfg.Session.Expiry)
	identityService := identity.NewService(identityClient, sessions, logger)

	// Ending a session drops its storefront state with it.
	identityService.OnSessionEnded(reviewService.Votes().Forget)
	identityService.OnSessionEnded(installs.Forget)

	// Health checks. The catalog snapshot is the one thing the storefront
	// cannot serve without.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("catalog", func(ctx context.Context) error {
		return store.Ready()
	})
	if redisClient != nil {
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	if producer != nil {
		healthHandler.RegisterNonCritical("kafka", producer.Ping)
	}

	// HTTP router.
	var installEvents handler.InstallEvents
	var regEvents handler.RegistrationEvents
	if publisher != nil {
		installEvents = publisher
		regEvents = publisher
	}
	router := handler.NewRouter(handler.RouterConfig{
		ServiceName:    cfg.ServiceName,
		Environment:    cfg.Environment,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Limits: handler.HomeLimits{
			Slider:     cfg.Catalog.SliderLimit,
			Trending:   cfg.Catalog.TrendingLimit,
			NewRelease: cfg.Catalog.NewReleaseLimit,
			Featured:   cfg.Catalog.FeaturedLimit,
		},
	}, store, installs, reviewService, identityService, installEvents, regEvents, healthHandler, logger)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		store:          store,
		loader:         loader,
		redis:          redisClient,
		producer:       producer,
		httpServer:     httpServer,
		shutdownTracer: shutdownTracer,
	}, nil
}

// Run starts the catalog refresh loop and the HTTP server, blocking until the
// context is canceled.
func (a *App) Run(ctx context.Context) error {
	// First load before accepting traffic matters for readiness, but a down
	// upstream at boot should not keep the process from starting; the refresh
	// loop keeps retrying and readiness reports the failure meanwhile.
	a.refreshCatalog(ctx)
	go a.refreshLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

func (a *App) refreshLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Catalog.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.refreshCatalog(ctx)
		}
	}
}

func (a *App) refreshCatalog(ctx context.Context) {
	apps, err := a.loader.Load(ctx)
	if err != nil {
		a.store.SetLoadError(err)
		a.logger.Error("catalog refresh failed", slog.String("error", err.Error()))
		return
	}
	a.store.Replace(apps)
	a.logger.Info("catalog refreshed", slog.Int("apps", len(apps)))
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.shutdownTracer(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
