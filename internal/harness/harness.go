package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/roach88/cprum/internal/engine"
	"github.com/roach88/cprum/internal/page"
	"github.com/roach88/cprum/internal/store"
	"github.com/roach88/cprum/internal/testutil"
)

// ClockStep is how far the fake clock advances per reading.
const ClockStep = 10 * time.Millisecond

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
// 1. Open an in-memory SQLite store
// 2. Queue the preboot commands on a new DataLayer
// 3. Build and boot a page adopting that DataLayer
// 4. Tag the flow commands
// 5. Collect the trace and final state, evaluate assertions
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}

	layer := engine.NewDataLayer()
	for _, step := range scenario.Preboot {
		layer.Push(step.Tag, step.Args...)
	}

	p, err := page.New(page.Options{
		Backend:    st,
		Layer:      layer,
		HTTPClient: &http.Client{},
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		Sessions:   testutil.NewFixedSessionGenerator(scenario.SessionID),
		Clock:      testutil.NewFakeClock(time.Time{}).Stepper(ClockStep),
	})
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to build page: %w", err)
	}
	defer p.Close()

	p.Boot()
	for _, step := range scenario.Flow {
		p.Tag(step.Tag, step.Args...)
	}

	result := NewResult()
	eng := p.Engine()
	for _, cmd := range eng.Layer().Entries()[:eng.Cursor()] {
		result.AddTrace(cmd.Seq, cmd.Name, cmd.Args)
	}
	result.State = p.State().Snapshot()

	actx := &AssertionContext{
		Backend: st,
		Ctx:     context.Background(),
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	return result, nil
}
