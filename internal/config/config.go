package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/apptrail/storefront/pkg/config"
)

// Config holds the storefront service configuration, populated from the
// environment.
type Config struct {
	ServiceName string `env:"SERVICE_NAME" envDefault:"storefront"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	HTTPPort    int    `env:"HTTP_PORT" envDefault:"8080"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	Catalog  CatalogConfig
	Redis    RedisConfig
	Kafka    KafkaConfig
	Identity IdentityConfig
	Session  SessionConfig
	CORS     CORSConfig
	Tracing  TracingConfig
}

// CatalogConfig configures the upstream catalog document source.
type CatalogConfig struct {
	URL             string        `env:"CATALOG_URL,required"`
	RefreshInterval time.Duration `env:"CATALOG_REFRESH_INTERVAL" envDefault:"15m"`
	CacheTTL        time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"30m"`
	SliderLimit     int           `env:"CATALOG_SLIDER_LIMIT" envDefault:"3"`
	TrendingLimit   int           `env:"CATALOG_TRENDING_LIMIT" envDefault:"4"`
	NewReleaseLimit int           `env:"CATALOG_NEW_RELEASE_LIMIT" envDefault:"4"`
	FeaturedLimit   int           `env:"CATALOG_FEATURED_LIMIT" envDefault:"6"`
}

// RedisConfig configures the catalog document cache. An empty Addr disables
// caching.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:""`
	Password string `env:"REDIS_PASSWORD" envDefault:""`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// KafkaConfig configures the domain event producer. Empty Brokers disables
// event publishing.
type KafkaConfig struct {
	Brokers []string `env:"KAFKA_BROKERS" envSeparator:","`
}

// IdentityConfig configures the external identity provider.
type IdentityConfig struct {
	BaseURL string        `env:"IDENTITY_BASE_URL,required"`
	APIKey  string        `env:"IDENTITY_API_KEY" envDefault:""`
	Timeout time.Duration `env:"IDENTITY_TIMEOUT" envDefault:"10s"`
}

// SessionConfig configures locally minted session tokens.
type SessionConfig struct {
	Secret string        `env:"SESSION_SECRET,required"`
	Expiry time.Duration `env:"SESSION_EXPIRY" envDefault:"24h"`
}

// CORSConfig configures allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	Endpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := pkgconfig.Load(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP_PORT %d", c.HTTPPort)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid LOG_LEVEL %q", c.LogLevel)
	}
	if c.Catalog.RefreshInterval < time.Minute {
		return fmt.Errorf("CATALOG_REFRESH_INTERVAL must be at least 1m, got %s", c.Catalog.RefreshInterval)
	}
	if len(c.Session.Secret) < 32 {
		return fmt.Errorf("SESSION_SECRET must be at least 32 bytes")
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
