package review

import (
	"fmt"
	"sync"

	apperrors "github.com/apptrail/storefront/pkg/errors"
)

// ComposerState is one phase of the review composer lifecycle.
type ComposerState string

const (
	ComposerIdle       ComposerState = "idle"
	ComposerFormOpen   ComposerState = "form_open"
	ComposerSubmitting ComposerState = "submitting"
	ComposerError      ComposerState = "error"
)

// ComposerAction is a client-driven composer transition.
type ComposerAction string

const (
	ComposerOpen   ComposerAction = "open"
	ComposerCancel ComposerAction = "cancel"
	ComposerRetry  ComposerAction = "retry"
)

// Composer tracks each session's composer state. Submission itself drives the
// submitting/idle/error transitions; the client drives open, cancel, and
// retry.
type Composer struct {
	mu       sync.Mutex
	sessions map[string]ComposerState
}

// NewComposer creates a composer with every session starting idle.
func NewComposer() *Composer {
	return &Composer{sessions: make(map[string]ComposerState)}
}

// State returns the session's current composer state.
func (c *Composer) State(sessionID string) ComposerState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state(sessionID)
}

// Apply performs a client-driven transition and returns the resulting state.
// Transitions not reachable from the current state are rejected.
func (c *Composer) Apply(sessionID string, action ComposerAction) (ComposerState, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.state(sessionID)
	var next ComposerState

	switch action {
	case ComposerOpen:
		if current != ComposerIdle {
			return current, invalidTransition(current, action)
		}
		next = ComposerFormOpen
	case ComposerCancel:
		if current != ComposerFormOpen && current != ComposerError {
			return current, invalidTransition(current, action)
		}
		next = ComposerIdle
	case ComposerRetry:
		if current != ComposerError {
			return current, invalidTransition(current, action)
		}
		next = ComposerFormOpen
	default:
		return current, apperrors.ValidationFailed(fmt.Sprintf("unknown composer action %q", action))
	}

	c.sessions[sessionID] = next
	return next, nil
}

// BeginSubmit moves the session from form open to submitting.
func (c *Composer) BeginSubmit(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current := c.state(sessionID); current != ComposerFormOpen {
		return invalidTransition(current, "submit")
	}
	c.sessions[sessionID] = ComposerSubmitting
	return nil
}

// FinishSubmit resolves a submission attempt: back to idle on success, to the
// error state on failure.
func (c *Composer) FinishSubmit(sessionID string, succeeded bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if succeeded {
		c.sessions[sessionID] = ComposerIdle
		return
	}
	c.sessions[sessionID] = ComposerError
}

// Forget drops composer state for a revoked session.
func (c *Composer) Forget(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.sessions, sessionID)
}

func (c *Composer) state(sessionID string) ComposerState {
	if state, ok := c.sessions[sessionID]; ok {
		return state
	}
	return ComposerIdle
}

func invalidTransition(from ComposerState, action ComposerAction) error {
	return apperrors.ValidationFailed(fmt.Sprintf("composer action %q not allowed in state %q", action, from))
}
