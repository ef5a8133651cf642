package review

import (
	"math"

	"github.com/apptrail/storefront/internal/domain"
)

// Stats computes the rating summary over a review collection. The average is
// rounded to one decimal and reported as 0 for an empty collection. PerStar
// always carries all five buckets so the distribution bars render even at
// zero.
func Stats(reviews []domain.AggregatedReview) domain.RatingSummary {
	summary := domain.RatingSummary{
		Total:   len(reviews),
		PerStar: map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	if len(reviews) == 0 {
		return summary
	}

	sum := 0
	for _, r := range reviews {
		sum += r.Rating
		if r.Rating >= 1 && r.Rating <= 5 {
			summary.PerStar[r.Rating]++
		}
	}

	summary.Average = math.Round(float64(sum)/float64(len(reviews))*10) / 10
	return summary
}
