package review

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/apptrail/storefront/pkg/errors"
)

func TestComposer_StartsIdle(t *testing.T) {
	c := NewComposer()
	assert.Equal(t, ComposerIdle, c.State("s1"))
}

func TestComposer_OpenCancelCycle(t *testing.T) {
	c := NewComposer()

	state, err := c.Apply("s1", ComposerOpen)
	require.NoError(t, err)
	assert.Equal(t, ComposerFormOpen, state)

	state, err = c.Apply("s1", ComposerCancel)
	require.NoError(t, err)
	assert.Equal(t, ComposerIdle, state)
}

func TestComposer_SubmitSuccessReturnsToIdle(t *testing.T) {
	c := NewComposer()

	_, err := c.Apply("s1", ComposerOpen)
	require.NoError(t, err)
	require.NoError(t, c.BeginSubmit("s1"))
	assert.Equal(t, ComposerSubmitting, c.State("s1"))

	c.FinishSubmit("s1", true)
	assert.Equal(t, ComposerIdle, c.State("s1"))
}

func TestComposer_SubmitFailureEntersErrorThenRetry(t *testing.T) {
	c := NewComposer()

	_, err := c.Apply("s1", ComposerOpen)
	require.NoError(t, err)
	require.NoError(t, c.BeginSubmit("s1"))

	c.FinishSubmit("s1", false)
	assert.Equal(t, ComposerError, c.State("s1"))

	state, err := c.Apply("s1", ComposerRetry)
	require.NoError(t, err)
	assert.Equal(t, ComposerFormOpen, state)
}

func TestComposer_RejectsUnreachableTransitions(t *testing.T) {
	c := NewComposer()

	_, err := c.Apply("s1", ComposerRetry)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed), "retry from idle rejected")

	_, err = c.Apply("s1", ComposerCancel)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed), "cancel from idle rejected")

	_, err = c.Apply("s1", ComposerOpen)
	require.NoError(t, err)
	_, err = c.Apply("s1", ComposerOpen)
	assert.True(t, errors.Is(err, apperrors.ErrValidationFailed), "open while already open rejected")
}

func TestComposer_SessionsAreIsolated(t *testing.T) {
	c := NewComposer()

	_, err := c.Apply("s1", ComposerOpen)
	require.NoError(t, err)

	assert.Equal(t, ComposerIdle, c.State("s2"))
}
