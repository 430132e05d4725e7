package game

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_Order(t *testing.T) {
	order := []Status{StatusEmpty, StatusCreated, StatusJoined, StatusReady, StatusStarted}
	for i := 1; i < len(order); i++ {
		assert.True(t, order[i-1].Before(order[i]), "%s should precede %s", order[i-1], order[i])
		assert.False(t, order[i].Before(order[i-1]))
	}
	assert.False(t, StatusReady.Before(StatusReady))
}

func TestStatus_StringRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusEmpty, StatusCreated, StatusJoined, StatusReady, StatusStarted} {
		parsed, err := ParseStatus(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, parsed)
	}

	_, err := ParseStatus("FINISHED")
	assert.Error(t, err)
	assert.Equal(t, "Status(9)", Status(9).String())
}

func TestStatus_JSONUsesNames(t *testing.T) {
	data, err := json.Marshal(Session{ID: "s1", Status: StatusJoined})
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"s1","status":"JOINED"}`, string(data))

	var s Session
	require.NoError(t, json.Unmarshal([]byte(`{"id":"s2","status":"STARTED"}`), &s))
	assert.Equal(t, StatusStarted, s.Status)
}
