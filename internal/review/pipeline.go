package review

import (
	"slices"
	"strings"

	"github.com/apptrail/storefront/internal/domain"
)

// SortKey selects the review list ordering.
type SortKey string

const (
	SortNewest      SortKey = "newest"
	SortOldest      SortKey = "oldest"
	SortHighest     SortKey = "highest"
	SortLowest      SortKey = "lowest"
	SortMostHelpful SortKey = "mostHelpful"
)

// ParseSortKey maps a query value to a sort key. Unknown or empty values fall
// back to newest.
func ParseSortKey(s string) SortKey {
	switch SortKey(s) {
	case SortOldest, SortHighest, SortLowest, SortMostHelpful:
		return SortKey(s)
	default:
		return SortNewest
	}
}

// Filter holds the review list refinement criteria. Rating 0 means all
// ratings; Query is matched case-insensitively.
type Filter struct {
	Rating int
	Query  string
	Sort   SortKey
}

// Apply runs the pipeline over the aggregated collection in its fixed order:
// rating filter, then text search, then stable sort. Reordering the stages
// would change which reviews survive when both criteria are set.
func Apply(reviews []domain.AggregatedReview, f Filter) []domain.AggregatedReview {
	out := filterByRating(reviews, f.Rating)
	out = filterByQuery(out, f.Query)
	sortReviews(out, f.Sort)
	return out
}

func filterByRating(reviews []domain.AggregatedReview, rating int) []domain.AggregatedReview {
	if rating < 1 || rating > 5 {
		return slices.Clone(reviews)
	}
	var out []domain.AggregatedReview
	for _, r := range reviews {
		if r.Rating == rating {
			out = append(out, r)
		}
	}
	return out
}

// filterByQuery matches the query against the review comment, the reviewer
// name, and the app name.
func filterByQuery(reviews []domain.AggregatedReview, query string) []domain.AggregatedReview {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return reviews
	}
	var out []domain.AggregatedReview
	for _, r := range reviews {
		if strings.Contains(strings.ToLower(r.Comment), q) ||
			strings.Contains(strings.ToLower(r.User), q) ||
			strings.Contains(strings.ToLower(r.AppName), q) {
			out = append(out, r)
		}
	}
	return out
}

// sortReviews orders the collection in place. All sorts are stable so equal
// keys keep their aggregation order.
func sortReviews(reviews []domain.AggregatedReview, key SortKey) {
	switch key {
	case SortOldest:
		slices.SortStableFunc(reviews, func(a, b domain.AggregatedReview) int {
			return domain.ParseReviewDate(a.Date).Compare(domain.ParseReviewDate(b.Date))
		})
	case SortHighest:
		slices.SortStableFunc(reviews, func(a, b domain.AggregatedReview) int {
			return b.Rating - a.Rating
		})
	case SortLowest:
		slices.SortStableFunc(reviews, func(a, b domain.AggregatedReview) int {
			return a.Rating - b.Rating
		})
	case SortMostHelpful:
		slices.SortStableFunc(reviews, func(a, b domain.AggregatedReview) int {
			return b.HelpfulScore() - a.HelpfulScore()
		})
	case SortNewest:
		slices.SortStableFunc(reviews, func(a, b domain.AggregatedReview) int {
			return domain.ParseReviewDate(b.Date).Compare(domain.ParseReviewDate(a.Date))
		})
	default:
		// Unrecognized keys keep the aggregation order.
	}
}
