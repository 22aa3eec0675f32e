package harness

import (
	"encoding/json"
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/cprum/internal/state"
)

// TraceSnapshot is the golden representation of a run.
type TraceSnapshot struct {
	ScenarioName string         `json:"scenario_name"`
	Trace        []TraceEvent   `json:"trace"`
	State        state.Snapshot `json:"state"`
}

// marshal renders the snapshot as indented JSON. Map keys are sorted by
// encoding/json, so the output is stable.
func (s TraceSnapshot) marshal() ([]byte, error) {
	return json.MarshalIndent(s, "", "  ")
}

// RunWithGolden executes a scenario and compares the trace and final state
// against testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	return result, AssertGolden(t, scenario.Name, result)
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	data, err := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		State:        result.State,
	}.marshal()
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, data)

	return nil
}
