package review

import "github.com/apptrail/storefront/internal/domain"

// Aggregate flattens every app's reviews into a single collection, each entry
// annotated with its parent app's display fields. Apps and reviews keep their
// catalog order, which is what the stable sorts below preserve on ties.
func Aggregate(apps []domain.App) []domain.AggregatedReview {
	var aggregated []domain.AggregatedReview
	for i := range apps {
		app := &apps[i]
		for _, r := range app.Reviews {
			aggregated = append(aggregated, domain.AggregatedReview{
				Review:       r,
				AppID:        app.ID,
				AppName:      app.Name,
				AppThumbnail: app.Thumbnail,
			})
		}
	}
	return aggregated
}
