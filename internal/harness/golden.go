package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/dobble/internal/wire"
)

// goldenDir is relative to the package under test.
const goldenDir = "testdata/golden"

// TraceSnapshot is the golden form of a run: the scenario's identity plus
// its step trace, written as canonical JSON so equal runs are equal bytes.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	SessionID    string       `json:"session_id"`
	Trace        []TraceEntry `json:"trace"`
}

// Snapshot renders the golden bytes for a scenario result.
func Snapshot(scenario *Scenario, result *Result) ([]byte, error) {
	snap := TraceSnapshot{
		ScenarioName: scenario.Name,
		SessionID:    scenario.SessionID,
		Trace:        result.Trace,
	}
	if snap.SessionID == "" {
		snap.SessionID = DefaultSessionID
	}
	return wire.MarshalCanonical(snap)
}

// RunWithGolden runs scenario and fails t when its trace differs from
// testdata/golden/<name>.golden. Pass -update to rewrite the file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	trace, err := Snapshot(scenario, result)
	if err != nil {
		return nil, err
	}
	goldie.New(t, goldie.WithFixtureDir(goldenDir), goldie.WithNameSuffix(".golden")).
		Assert(t, scenario.Name, trace)
	return result, nil
}
