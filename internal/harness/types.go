package harness

import (
	"github.com/roach88/cprum/internal/state"
)

// TraceEvent is one dispatched DataLayer command.
type TraceEvent struct {
	Seq  int64  `json:"seq"`
	Tag  string `json:"tag"`
	Args []any  `json:"args,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace lists dispatched commands in dispatch order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// State is the snapshot after the flow.
	State state.Snapshot `json:"state"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends a dispatched command.
func (r *Result) AddTrace(seq int64, tag string, args []any) {
	r.Trace = append(r.Trace, TraceEvent{Seq: seq, Tag: tag, Args: args})
}
