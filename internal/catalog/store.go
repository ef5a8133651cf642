package catalog

import (
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/apptrail/storefront/internal/domain"
	apperrors "github.com/apptrail/storefront/pkg/errors"
)

// Store holds the current catalog snapshot. Reads return deep clones so
// downstream aggregation and handlers never mutate shared state.
type Store struct {
	mu       sync.RWMutex
	apps     []domain.App
	loadedAt time.Time
	loaded   bool
	lastErr  error
}

// NewStore creates an empty store. It reports not-ready until the first
// successful Replace.
func NewStore() *Store {
	return &Store{}
}

// Replace swaps in a freshly loaded snapshot and clears any recorded load
// failure.
func (s *Store) Replace(apps []domain.App) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps = apps
	s.loadedAt = time.Now()
	s.loaded = true
	s.lastErr = nil
}

// SetLoadError records a failed refresh. An already loaded snapshot stays
// servable; only readiness reflects the failure.
func (s *Store) SetLoadError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = err
}

// Ready reports whether the store holds a servable snapshot. Used as the
// critical readiness check.
func (s *Store) Ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		if s.lastErr != nil {
			return s.lastErr
		}
		return apperrors.FetchFailed(nil)
	}
	return nil
}

// LoadedAt returns when the current snapshot was installed.
func (s *Store) LoadedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadedAt
}

// Apps returns a deep clone of every app in the snapshot.
func (s *Store) Apps() []domain.App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.apps)
}

// ByID returns the app with the given ID.
func (s *Store) ByID(id string) (domain.App, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.apps {
		if s.apps[i].ID == id {
			return s.apps[i].Clone(), nil
		}
	}
	return domain.App{}, apperrors.NotFound("app not found")
}

// Categories returns the distinct categories in first-seen catalog order.
func (s *Store) Categories() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var categories []string
	for i := range s.apps {
		c := s.apps[i].Category
		if c == "" {
			continue
		}
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			categories = append(categories, c)
		}
	}
	return categories
}

// ByCategory returns the apps in the given category. The match is
// case-insensitive.
func (s *Store) ByCategory(category string) []domain.App {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []domain.App
	for i := range s.apps {
		if strings.EqualFold(s.apps[i].Category, category) {
			matched = append(matched, s.apps[i].Clone())
		}
	}
	return matched
}

// Slider returns the first limit apps in catalog order, for the home page
// banner rotation.
func (s *Store) Slider(limit int) []domain.App {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return truncate(cloneAll(s.apps), limit)
}

// NewReleases returns up to limit apps ordered by their updated date, most
// recent first. Unparseable dates sort last.
func (s *Store) NewReleases(limit int) []domain.App {
	s.mu.RLock()
	apps := cloneAll(s.apps)
	s.mu.RUnlock()

	slices.SortStableFunc(apps, func(a, b domain.App) int {
		return domain.ParseReviewDate(b.Updated).Compare(domain.ParseReviewDate(a.Updated))
	})
	return truncate(apps, limit)
}

// Trending returns up to limit apps ordered by rating, highest first. Ties
// keep catalog order.
func (s *Store) Trending(limit int) []domain.App {
	s.mu.RLock()
	apps := cloneAll(s.apps)
	s.mu.RUnlock()

	slices.SortStableFunc(apps, func(a, b domain.App) int {
		switch {
		case a.Rating > b.Rating:
			return -1
		case a.Rating < b.Rating:
			return 1
		default:
			return 0
		}
	})
	return truncate(apps, limit)
}

// Featured returns up to limit apps ordered by download count, highest first.
func (s *Store) Featured(limit int) []domain.App {
	s.mu.RLock()
	apps := cloneAll(s.apps)
	s.mu.RUnlock()

	slices.SortStableFunc(apps, func(a, b domain.App) int {
		switch {
		case a.Downloads > b.Downloads:
			return -1
		case a.Downloads < b.Downloads:
			return 1
		default:
			return 0
		}
	})
	return truncate(apps, limit)
}

// AppendReview adds a review to an app in the snapshot. The submission lives
// only in this snapshot; the next Replace discards it.
func (s *Store) AppendReview(appID string, review domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.apps {
		if s.apps[i].ID == appID {
			s.apps[i].Reviews = append(s.apps[i].Reviews, review)
			return nil
		}
	}
	return apperrors.NotFound("app not found")
}

func cloneAll(apps []domain.App) []domain.App {
	cloned := make([]domain.App, len(apps))
	for i := range apps {
		cloned[i] = apps[i].Clone()
	}
	return cloned
}

func truncate(apps []domain.App, limit int) []domain.App {
	if limit > 0 && len(apps) > limit {
		return apps[:limit]
	}
	return apps
}
