package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/apptrail/storefront/internal/domain"
	apperrors "github.com/apptrail/storefront/pkg/errors"
)

// maxDocumentSize bounds the catalog document body read.
const maxDocumentSize = 16 << 20

var (
	catalogFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storefront_catalog_fetch_total",
			Help: "Total catalog document fetch attempts by outcome",
		},
		[]string{"outcome"},
	)

	catalogApps = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "storefront_catalog_apps",
			Help: "Number of apps in the most recently loaded catalog snapshot",
		},
	)
)

// Fetcher issues GET requests to the catalog upstream. Satisfied by
// httpclient.CircuitBreakerClient.
type Fetcher interface {
	Get(ctx context.Context, url string) (*http.Response, error)
}

// Loader retrieves the full catalog JSON document, one retrieval per load, no
// incremental or paginated fetching at the network layer.
type Loader struct {
	client Fetcher
	cache  *Cache
	url    string
	logger *slog.Logger
}

// NewLoader creates a catalog loader. cache may be nil to disable caching.
func NewLoader(client Fetcher, cache *Cache, url string, logger *slog.Logger) *Loader {
	return &Loader{
		client: client,
		cache:  cache,
		url:    url,
		logger: logger,
	}
}

// Load fetches and decodes the catalog. The cache is preferred; a miss falls
// through to the upstream and repopulates it. Any retrieval or decode failure
// is returned as FetchFailed rather than being silently treated as an empty
// catalog.
func (l *Loader) Load(ctx context.Context) ([]domain.App, error) {
	if raw, ok := l.fromCache(ctx); ok {
		apps, err := decodeCatalog(raw)
		if err == nil {
			catalogFetchTotal.WithLabelValues("cache_hit").Inc()
			return apps, nil
		}
		// A corrupt cached document falls through to the upstream.
		l.logger.WarnContext(ctx, "cached catalog document undecodable, refetching",
			slog.String("error", err.Error()),
		)
	}

	raw, err := l.fetch(ctx)
	if err != nil {
		catalogFetchTotal.WithLabelValues("error").Inc()
		return nil, apperrors.FetchFailed(err)
	}

	apps, err := decodeCatalog(raw)
	if err != nil {
		catalogFetchTotal.WithLabelValues("error").Inc()
		return nil, apperrors.FetchFailed(err)
	}

	catalogFetchTotal.WithLabelValues("success").Inc()
	catalogApps.Set(float64(len(apps)))

	if l.cache != nil {
		if err := l.cache.Put(ctx, raw); err != nil {
			l.logger.WarnContext(ctx, "failed to cache catalog document",
				slog.String("error", err.Error()),
			)
		}
	}

	return apps, nil
}

func (l *Loader) fromCache(ctx context.Context) ([]byte, bool) {
	if l.cache == nil {
		return nil, false
	}
	raw, err := l.cache.Get(ctx)
	if err != nil {
		l.logger.WarnContext(ctx, "catalog cache read failed",
			slog.String("error", err.Error()),
		)
		return nil, false
	}
	return raw, raw != nil
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	resp, err := l.client.Get(ctx, l.url)
	if err != nil {
		return nil, fmt.Errorf("fetch catalog document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog upstream returned status %d", resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read catalog document: %w", err)
	}
	return raw, nil
}

// decodeCatalog parses the document and assigns IDs to seed reviews that lack
// one, so every review has a stable identity for vote tracking.
func decodeCatalog(raw []byte) ([]domain.App, error) {
	var apps []domain.App
	if err := json.Unmarshal(raw, &apps); err != nil {
		return nil, fmt.Errorf("decode catalog document: %w", err)
	}

	for i := range apps {
		for j := range apps[i].Reviews {
			if apps[i].Reviews[j].ID == "" {
				apps[i].Reviews[j].ID = uuid.New().String()
			}
		}
	}
	return apps, nil
}
