package domain

// App is a catalog entry representing an installable application and its
// metadata, as delivered by the upstream catalog document. Apps are immutable
// from the pipeline's perspective except for appended reviews.
type App struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Developer   string   `json:"developer"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Thumbnail   string   `json:"thumbnail"`
	Banner      string   `json:"banner,omitempty"`
	Version     string   `json:"version"`
	Size        string   `json:"size"`
	Updated     string   `json:"updated"`
	Rating      float64  `json:"rating"`
	Downloads   int64    `json:"downloads"`
	Features    []string `json:"features"`
	Reviews     []Review `json:"reviews"`
}

// Clone returns a deep copy of the app. Catalog reads hand out clones so the
// aggregation pipeline can never mutate the stored records.
func (a App) Clone() App {
	cp := a
	if a.Features != nil {
		cp.Features = make([]string, len(a.Features))
		copy(cp.Features, a.Features)
	}
	if a.Reviews != nil {
		cp.Reviews = make([]Review, len(a.Reviews))
		copy(cp.Reviews, a.Reviews)
	}
	return cp
}
