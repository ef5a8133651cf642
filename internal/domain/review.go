package domain

import "time"

// Review is a user-submitted rating and comment attached to exactly one App.
// Seed reviews arrive without IDs; the catalog loader assigns one at ingest so
// vote state can be keyed by stable identity rather than page position.
type Review struct {
	ID        string `json:"id"`
	User      string `json:"user"`
	UserPhoto string `json:"userPhoto,omitempty"`
	Date      string `json:"date"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	Likes     int    `json:"likes"`
	Dislikes  int    `json:"dislikes"`
}

// HelpfulScore is the net helpfulness used by the mostHelpful sort order.
func (r Review) HelpfulScore() int {
	return r.Likes - r.Dislikes
}

// AggregatedReview is a Review annotated with its parent App's display fields,
// a read-only projection created fresh on every aggregation pass.
type AggregatedReview struct {
	Review
	AppID        string `json:"appId"`
	AppName      string `json:"appName"`
	AppThumbnail string `json:"appThumbnail"`
}

// RatingSummary holds derived aggregate rating metrics over a review
// collection: always a pure function of the current collection, recomputed
// whenever it changes.
type RatingSummary struct {
	Total   int         `json:"total"`
	Average float64     `json:"average"`
	PerStar map[int]int `json:"per_star"`
}

// VoteState tracks the transient helpful/unhelpful toggles for one review
// within one session. Up and down are independent toggles, mirroring the
// observed storefront behavior; they are never written back into the stored
// like/dislike counters.
type VoteState struct {
	Up   bool `json:"up"`
	Down bool `json:"down"`
}

// reviewDateLayouts are the formats seed and submitted review dates arrive in.
var reviewDateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
}

// ParseReviewDate parses a review date string. Unparseable dates return the
// zero time, which sorts as the earliest possible value rather than faulting.
func ParseReviewDate(s string) time.Time {
	for _, layout := range reviewDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
