package event

import (
	"context"

	"github.com/apptrail/storefront/internal/domain"
	"github.com/apptrail/storefront/pkg/kafka"
	"github.com/apptrail/storefront/pkg/logger"
)

const source = "storefront"

// Topics for storefront domain events.
const (
	TopicReviewSubmitted = "apptrail.review.submitted"
	TopicReviewVoted     = "apptrail.review.voted"
	TopicUserRegistered  = "apptrail.user.registered"
	TopicAppInstalled    = "apptrail.app.installed"
)

// Publisher emits storefront domain events to Kafka. All emissions are fire
// and forget from the caller's point of view; the caller logs and carries on
// when a publish fails.
type Publisher struct {
	producer *kafka.Producer
}

// NewPublisher wraps a Kafka producer.
func NewPublisher(producer *kafka.Producer) *Publisher {
	return &Publisher{producer: producer}
}

// ReviewSubmitted emits an event for a newly submitted review.
func (p *Publisher) ReviewSubmitted(ctx context.Context, review domain.AggregatedReview) error {
	return p.publish(ctx, TopicReviewSubmitted, "review.submitted", review.ID, "review", map[string]any{
		"review_id": review.ID,
		"app_id":    review.AppID,
		"rating":    review.Rating,
		"user":      review.User,
	})
}

// ReviewVoted emits an event for a vote toggle.
func (p *Publisher) ReviewVoted(ctx context.Context, reviewID string, direction string, state domain.VoteState) error {
	return p.publish(ctx, TopicReviewVoted, "review.voted", reviewID, "review", map[string]any{
		"review_id": reviewID,
		"direction": direction,
		"up":        state.Up,
		"down":      state.Down,
	})
}

// UserRegistered emits an event for a new account.
func (p *Publisher) UserRegistered(ctx context.Context, user domain.User) error {
	return p.publish(ctx, TopicUserRegistered, "user.registered", user.UID, "user", map[string]any{
		"uid":   user.UID,
		"email": user.Email,
	})
}

// AppInstalled emits an event for a session-scoped install.
func (p *Publisher) AppInstalled(ctx context.Context, appID, userID string) error {
	return p.publish(ctx, TopicAppInstalled, "app.installed", appID, "app", map[string]any{
		"app_id":  appID,
		"user_id": userID,
	})
}

func (p *Publisher) publish(ctx context.Context, topic, eventType, aggregateID, aggregateType string, data map[string]any) error {
	evt, err := kafka.NewEvent(eventType, aggregateID, aggregateType, source, data)
	if err != nil {
		return err
	}
	if correlationID := logger.CorrelationIDFromContext(ctx); correlationID != "" {
		evt = evt.WithCorrelationID(correlationID)
	}
	return p.producer.Publish(ctx, topic, evt)
}
