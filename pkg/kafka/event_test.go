package kafka

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent_PopulatesEnvelope(t *testing.T) {
	data := map[string]any{"review_id": "rev-1", "rating": 5}

	event, err := NewEvent("review.submitted", "rev-1", "review", "storefront", data)
	require.NoError(t, err)

	assert.NotEmpty(t, event.EventID)
	assert.Equal(t, "review.submitted", event.EventType)
	assert.Equal(t, "rev-1", event.AggregateID)
	assert.Equal(t, "review", event.AggregateType)
	assert.Equal(t, 1, event.Version)
	assert.Equal(t, "storefront", event.Source)
	assert.NotZero(t, event.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(event.Data, &decoded))
	assert.Equal(t, "rev-1", decoded["review_id"])
}

func TestNewEvent_UnmarshalableData(t *testing.T) {
	_, err := NewEvent("review.submitted", "rev-1", "review", "storefront", make(chan int))
	assert.Error(t, err)
}

func TestEvent_WithCorrelationID(t *testing.T) {
	event, err := NewEvent("user.registered", "user-1", "user", "storefront", nil)
	require.NoError(t, err)

	event.WithCorrelationID("corr-1")
	assert.Equal(t, "corr-1", event.CorrelationID)

	raw, err := event.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "corr-1")
}
