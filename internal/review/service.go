package review

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/apptrail/storefront/internal/catalog"
	"github.com/apptrail/storefront/internal/domain"
	apperrors "github.com/apptrail/storefront/pkg/errors"
	"github.com/apptrail/storefront/pkg/pagination"
)

// Events publishes review domain events. Publish failures never fail the
// operation that produced them.
type Events interface {
	ReviewSubmitted(ctx context.Context, review domain.AggregatedReview) error
	ReviewVoted(ctx context.Context, reviewID string, direction string, state domain.VoteState) error
}

// Service runs the review aggregation pipeline over the catalog snapshot and
// owns the per-session vote and composer state.
type Service struct {
	store    *catalog.Store
	votes    *VoteTracker
	composer *Composer
	events   Events
	logger   *slog.Logger
}

// NewService creates the review service. events may be nil when publishing is
// disabled.
func NewService(store *catalog.Store, events Events, logger *slog.Logger) *Service {
	return &Service{
		store:    store,
		votes:    NewVoteTracker(),
		composer: NewComposer(),
		events:   events,
		logger:   logger,
	}
}

// Votes exposes the tracker for session teardown.
func (s *Service) Votes() *VoteTracker { return s.votes }

// ComposerFor returns the session's composer state.
func (s *Service) ComposerFor(sessionID string) ComposerState {
	return s.composer.State(sessionID)
}

// ComposerApply performs a client-driven composer transition.
func (s *Service) ComposerApply(sessionID string, action ComposerAction) (ComposerState, error) {
	return s.composer.Apply(sessionID, action)
}

// ListQuery carries the review list refinement and pagination parameters.
type ListQuery struct {
	Filter Filter
	Page   pagination.Params
}

// ListResult is one page of the refined review collection plus the summary
// computed over the full aggregate.
type ListResult struct {
	Reviews pagination.Result[domain.AggregatedReview] `json:"reviews"`
	Stats   domain.RatingSummary                       `json:"stats"`
	Sort    SortKey                                    `json:"sort"`
}

// List aggregates the catalog's reviews, runs the refinement pipeline, and
// returns the requested page. The summary always reflects the full collection
// regardless of active filters. A page beyond the refined collection's end is
// answered as page one, which is how filter changes that shrink the
// collection reset the pager.
func (s *Service) List(ctx context.Context, sessionID string, q ListQuery) (ListResult, error) {
	if err := s.store.Ready(); err != nil {
		return ListResult{}, err
	}

	aggregated := Aggregate(s.store.Apps())
	stats := Stats(aggregated)
	refined := Apply(aggregated, q.Filter)

	params := q.Page
	if params.Page > pagination.PageCount(len(refined), params.PerPage) {
		params.Page = 1
	}

	page := pagination.Page(refined, params.Page, params.PerPage)
	if sessionID != "" {
		s.votes.Adjust(sessionID, page)
	}

	return ListResult{
		Reviews: pagination.NewResult(page, len(refined), params),
		Stats:   stats,
		Sort:    q.Filter.Sort,
	}, nil
}

// SubmitInput is a review submission request body.
type SubmitInput struct {
	AppID   string `json:"app_id" validate:"required"`
	Rating  int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=10,max=500"`
}

// Submit appends a review to the targeted app on behalf of the signed-in
// user. An omitted rating defaults to five stars. The submission lives in the
// current snapshot only and is discarded by the next catalog refresh.
func (s *Service) Submit(ctx context.Context, user domain.User, sessionID string, in SubmitInput) (domain.AggregatedReview, error) {
	if user.UID == "" {
		return domain.AggregatedReview{}, apperrors.AuthRequired("sign in to submit a review")
	}

	comment := strings.TrimSpace(in.Comment)
	if len(comment) < 10 || len(comment) > 500 {
		return domain.AggregatedReview{}, apperrors.ValidationFailed("comment must be between 10 and 500 characters")
	}
	rating := in.Rating
	if rating == 0 {
		rating = 5
	}
	if rating < 1 || rating > 5 {
		return domain.AggregatedReview{}, apperrors.ValidationFailed("rating must be between 1 and 5")
	}

	app, err := s.store.ByID(in.AppID)
	if err != nil {
		return domain.AggregatedReview{}, err
	}

	// Direct API submissions may not have opened the composer form first;
	// the transition is advisory in that case.
	_ = s.composer.BeginSubmit(sessionID)

	rec := domain.Review{
		ID:        uuid.New().String(),
		User:      displayName(user),
		UserPhoto: user.PhotoURL,
		Date:      time.Now().UTC().Format(time.RFC3339),
		Rating:    rating,
		Comment:   comment,
	}

	if err := s.store.AppendReview(app.ID, rec); err != nil {
		s.composer.FinishSubmit(sessionID, false)
		return domain.AggregatedReview{}, err
	}
	s.composer.FinishSubmit(sessionID, true)

	submitted := domain.AggregatedReview{
		Review:       rec,
		AppID:        app.ID,
		AppName:      app.Name,
		AppThumbnail: app.Thumbnail,
	}

	if s.events != nil {
		if err := s.events.ReviewSubmitted(ctx, submitted); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review submitted event",
				slog.String("review_id", rec.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "review submitted",
		slog.String("review_id", rec.ID),
		slog.String("app_id", app.ID),
		slog.Int("rating", rating),
	)
	return submitted, nil
}

// VoteResult reports the session's vote state on a review together with the
// adjusted counts.
type VoteResult struct {
	ReviewID string           `json:"review_id"`
	State    domain.VoteState `json:"state"`
	Likes    int              `json:"likes"`
	Dislikes int              `json:"dislikes"`
}

// Vote toggles one direction of the session's vote on a review. The review
// must exist in the current aggregate.
func (s *Service) Vote(ctx context.Context, sessionID, reviewID string, dir VoteDirection) (VoteResult, error) {
	if err := s.store.Ready(); err != nil {
		return VoteResult{}, err
	}

	target, ok := s.findReview(reviewID)
	if !ok {
		return VoteResult{}, apperrors.NotFound("review not found")
	}

	state := s.votes.Toggle(sessionID, reviewID, dir)

	likes := target.Likes
	dislikes := target.Dislikes
	if state.Up {
		likes++
	}
	if state.Down {
		dislikes++
	}

	if s.events != nil {
		if err := s.events.ReviewVoted(ctx, reviewID, string(dir), state); err != nil {
			s.logger.WarnContext(ctx, "failed to publish review voted event",
				slog.String("review_id", reviewID),
				slog.String("error", err.Error()),
			)
		}
	}

	return VoteResult{ReviewID: reviewID, State: state, Likes: likes, Dislikes: dislikes}, nil
}

// AppReviews returns one app's reviews with the session's vote adjustments
// applied, for the detail page.
func (s *Service) AppReviews(sessionID, appID string) ([]domain.AggregatedReview, error) {
	app, err := s.store.ByID(appID)
	if err != nil {
		return nil, err
	}
	aggregated := Aggregate([]domain.App{app})
	if sessionID != "" {
		s.votes.Adjust(sessionID, aggregated)
	}
	return aggregated, nil
}

func (s *Service) findReview(reviewID string) (domain.AggregatedReview, bool) {
	for _, r := range Aggregate(s.store.Apps()) {
		if r.ID == reviewID {
			return r, true
		}
	}
	return domain.AggregatedReview{}, false
}

func displayName(user domain.User) string {
	if user.DisplayName != "" {
		return user.DisplayName
	}
	return user.Email
}
