package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/dobble/internal/game"
)

func boolPtr(b bool) *bool { return &b }

func createAck() Step {
	return Step{
		Event:   "ack:create",
		Payload: map[string]interface{}{"player": map[string]interface{}{"id": 1, "game_id": 7}},
	}
}

func TestRun_MinimalScenario(t *testing.T) {
	scenario := &Scenario{
		Name:        "minimal",
		Description: "Minimal test scenario",
		SessionID:   "s-min",
		Steps:       []Step{createAck()},
		Assertions: []Assertion{
			{Type: AssertTraceContains, Kind: "ack:create"},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Empty(t, result.Errors)

	require.Len(t, result.Trace, 1)
	assert.Equal(t, TraceEntry{
		Step: 1, Seq: 1, Kind: "ack:create", Changed: true,
		Status: "CREATED", Readiness: "AWAITING_CARD",
	}, result.Trace[0])

	assert.Equal(t, int64(1), result.View.Seq)
	assert.Equal(t, "s-min", result.View.Session.ID)
	assert.Len(t, result.Digest, 64)
}

func TestRun_DroppedFrameTakesNoSeq(t *testing.T) {
	scenario := &Scenario{
		Name:        "dropped",
		Description: "Dropped frames are not reduced",
		Steps: []Step{
			{Frame: "{"},
			{Frame: `{"event":"STARTED"}`},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Kind: KindDropped, Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)

	require.Len(t, result.Trace, 2)
	assert.Equal(t, KindDropped, result.Trace[0].Kind)
	assert.Zero(t, result.Trace[0].Seq)
	assert.Equal(t, int64(1), result.Trace[1].Seq)
	assert.Equal(t, game.StatusStarted, result.View.Session.Status)
}

func TestRun_StepExpectationFailures(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect_failures",
		Description: "Every mismatching expect field is reported",
		Steps: []Step{
			{
				Event:   "ack:create",
				Payload: map[string]interface{}{"player": map[string]interface{}{"id": 1, "game_id": 7}},
				Expect: &StepExpect{
					Changed:   boolPtr(false),
					Status:    "JOINED",
					Readiness: "AWAITING_ANSWER",
					Effects:   []string{"refresh_games"},
					Refused:   "nope",
					Dropped:   boolPtr(true),
				},
			},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Kind: "ack:create", Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 6)
	assert.Contains(t, result.Errors[0], "dropped = false, expected true")
	assert.Contains(t, result.Errors[1], "changed = true, expected false")
	assert.Contains(t, result.Errors[2], "status = CREATED, expected JOINED")
	assert.Contains(t, result.Errors[3], "readiness = AWAITING_CARD, expected AWAITING_ANSWER")
	assert.Contains(t, result.Errors[4], "effects = [], expected [refresh_games]")
	assert.Contains(t, result.Errors[5], `admitted, expected refusal containing "nope"`)
}

func TestRun_RefusedIssue(t *testing.T) {
	scenario := &Scenario{
		Name:        "refused",
		Description: "Ready before a player exists is refused",
		Steps: []Step{
			{Event: "issued:ready", Expect: &StepExpect{Changed: boolPtr(false), Refused: "no player"}},
		},
		Assertions: []Assertion{{Type: AssertTraceCount, Kind: "issued:ready", Changed: boolPtr(false), Count: 1}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "ready: no player assigned yet", result.Trace[0].Refused)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Zero(t, result.View.Seq)
}

func TestRun_GamesListed(t *testing.T) {
	scenario := &Scenario{
		Name:        "games",
		Description: "Lobby listings are folded into the view",
		Steps: []Step{
			{Frame: `{"event":"CREATED"}`, Expect: &StepExpect{Effects: []string{"refresh_games"}}},
			{
				Event:   "games",
				Payload: map[string]interface{}{"games": []interface{}{map[string]interface{}{"id": 3, "status": "CREATED"}}},
				Expect:  &StepExpect{Changed: boolPtr(true)},
			},
		},
		Assertions: []Assertion{{
			Type:   AssertFinalView,
			Expect: map[string]interface{}{"games": []interface{}{map[string]interface{}{"id": 3, "status": "CREATED"}}},
		}},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, []game.Listing{{ID: 3, Status: "CREATED"}}, result.View.Games)
}

func TestRun_UnknownEventKindIsExecutionError(t *testing.T) {
	scenario := &Scenario{
		Name:        "bad_kind",
		Description: "Unknown kinds cannot be executed",
		Steps:       []Step{{Event: "ack:shuffle"}},
		Assertions:  []Assertion{{Type: AssertTraceCount, Kind: "ack:shuffle", Count: 1}},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")
	assert.Contains(t, err.Error(), `unknown action "shuffle"`)
}

func TestRun_AssertionFailuresAreReported(t *testing.T) {
	scenario := &Scenario{
		Name:        "assert_fail",
		Description: "Failing assertions mark the result failed",
		Steps:       []Step{createAck()},
		Assertions: []Assertion{
			{Type: AssertTraceCount, Kind: "ack:create", Count: 2},
			{Type: AssertFinalView, Expect: map[string]interface{}{"session": map[string]interface{}{"status": "STARTED"}}},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 2)
	assert.Contains(t, result.Errors[0], "2 occurrences of ack:create")
	assert.Contains(t, result.Errors[1], `session.status = "STARTED"`)
}

func TestRun_Deterministic(t *testing.T) {
	scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", "scenario_c_answered.yaml"))
	require.NoError(t, err)

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	assert.Equal(t, first.Trace, second.Trace)
	assert.Equal(t, first.Digest, second.Digest)
}
