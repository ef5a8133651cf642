package review

import (
	"sync"

	"github.com/apptrail/storefront/internal/domain"
	apperrors "github.com/apptrail/storefront/pkg/errors"
)

// VoteDirection names the two vote toggles.
type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

// ParseVoteDirection validates a vote direction from a request.
func ParseVoteDirection(s string) (VoteDirection, error) {
	switch VoteDirection(s) {
	case VoteUp, VoteDown:
		return VoteDirection(s), nil
	default:
		return "", apperrors.ValidationFailed("direction must be \"up\" or \"down\"")
	}
}

// VoteTracker records per-session vote toggles keyed by review ID. State is
// in memory only and the two directions toggle independently of each other.
type VoteTracker struct {
	mu       sync.RWMutex
	sessions map[string]map[string]domain.VoteState
}

// NewVoteTracker creates an empty tracker.
func NewVoteTracker() *VoteTracker {
	return &VoteTracker{sessions: make(map[string]map[string]domain.VoteState)}
}

// Toggle flips one direction of the session's vote on a review and returns
// the resulting state.
func (t *VoteTracker) Toggle(sessionID, reviewID string, dir VoteDirection) domain.VoteState {
	t.mu.Lock()
	defer t.mu.Unlock()

	votes, ok := t.sessions[sessionID]
	if !ok {
		votes = make(map[string]domain.VoteState)
		t.sessions[sessionID] = votes
	}

	state := votes[reviewID]
	switch dir {
	case VoteUp:
		state.Up = !state.Up
	case VoteDown:
		state.Down = !state.Down
	}
	votes[reviewID] = state
	return state
}

// State returns the session's vote on a review, zero-valued when the session
// never voted.
func (t *VoteTracker) State(sessionID, reviewID string) domain.VoteState {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessions[sessionID][reviewID]
}

// Adjust applies the session's vote deltas to the displayed like and dislike
// counts. The stored counters are never modified.
func (t *VoteTracker) Adjust(sessionID string, reviews []domain.AggregatedReview) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	votes, ok := t.sessions[sessionID]
	if !ok {
		return
	}
	for i := range reviews {
		state, ok := votes[reviews[i].ID]
		if !ok {
			continue
		}
		if state.Up {
			reviews[i].Likes++
		}
		if state.Down {
			reviews[i].Dislikes++
		}
	}
}

// Forget drops all vote state for a session, used when the session is
// revoked.
func (t *VoteTracker) Forget(sessionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, sessionID)
}
