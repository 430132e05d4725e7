package readiness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZeroValueAwaitsCard(t *testing.T) {
	var c Coordinator
	assert.Equal(t, AwaitingCard, c.State())
	assert.NoError(t, c.PermitReady())
	assert.ErrorIs(t, c.PermitSubmit(), ErrNotPermitted)
}

func TestReadyIssued(t *testing.T) {
	c, err := Coordinator{}.ReadyIssued()
	require.NoError(t, err)
	assert.Equal(t, WaitingForPeers, c.State())

	// A second ready request while waiting is refused and leaves state alone.
	again, err := c.ReadyIssued()
	assert.ErrorIs(t, err, ErrNotPermitted)
	assert.Equal(t, c, again)
}

func TestReadyFailedRestoresPreCallState(t *testing.T) {
	c, err := Coordinator{}.ReadyIssued()
	require.NoError(t, err)

	c = c.ReadyFailed()
	assert.Equal(t, AwaitingCard, c.State())
	assert.NoError(t, c.PermitReady())

	// Outside WaitingForPeers the failure is stale and ignored.
	assert.Equal(t, AwaitingAnswer, At(AwaitingAnswer).ReadyFailed().State())
}

func TestCardDealt(t *testing.T) {
	waiting := At(WaitingForPeers)
	assert.Equal(t, AwaitingCard, waiting.CardDealt(1).State())
	assert.Equal(t, AwaitingAnswer, waiting.CardDealt(2).State())
	assert.Equal(t, AwaitingAnswer, waiting.CardDealt(5).State())

	// Authoritative from any state.
	assert.Equal(t, AwaitingAnswer, At(AwaitingCard).CardDealt(2).State())
}

func TestAnswered(t *testing.T) {
	assert.Equal(t, AwaitingCard, At(AwaitingAnswer).Answered().State())
	assert.Equal(t, AwaitingCard, At(WaitingForPeers).Answered().State())
}

func TestGating(t *testing.T) {
	tests := []struct {
		state    State
		readyOK  bool
		submitOK bool
	}{
		{AwaitingCard, true, false},
		{WaitingForPeers, false, false},
		{AwaitingAnswer, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			c := At(tt.state)
			if tt.readyOK {
				assert.NoError(t, c.PermitReady())
			} else {
				assert.ErrorIs(t, c.PermitReady(), ErrNotPermitted)
			}
			if tt.submitOK {
				assert.NoError(t, c.PermitSubmit())
			} else {
				assert.ErrorIs(t, c.PermitSubmit(), ErrNotPermitted)
			}
		})
	}
}

func TestStateNames(t *testing.T) {
	assert.Equal(t, "AWAITING_CARD", AwaitingCard.String())
	assert.Equal(t, "WAITING_FOR_PEERS", WaitingForPeers.String())
	assert.Equal(t, "AWAITING_ANSWER", AwaitingAnswer.String())
	assert.Equal(t, "State(7)", State(7).String())
}
