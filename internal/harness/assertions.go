package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/cprum/internal/store"
)

// AssertionError describes one failed assertion.
type AssertionError struct {
	Type     string
	Expected any
	Actual   any
	Message  string
}

func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s assertion failed: %s", e.Type, e.Message)
}

// AssertionContext gives assertions access to the store.
type AssertionContext struct {
	Backend store.Backend
	Ctx     context.Context
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, a)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, a)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, a)
		case AssertFinalState:
			err = assertFinalState(result, a)
		case AssertStored:
			err = assertStored(actx, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}

func assertTraceContains(trace []TraceEvent, a Assertion) error {
	for _, ev := range trace {
		if ev.Tag == a.Tag && argsPrefix(ev.Args, a.Args) {
			return nil
		}
	}
	msg := fmt.Sprintf("tag %q not dispatched", a.Tag)
	if a.Args != nil {
		msg = fmt.Sprintf("tag %q with args %v not dispatched", a.Tag, a.Args)
	}
	return &AssertionError{Type: AssertTraceContains, Expected: a.Args, Message: msg}
}

// assertTraceOrder checks that a.Tags occur in this relative order; other
// commands may be interleaved.
func assertTraceOrder(trace []TraceEvent, a Assertion) error {
	next := 0
	for _, ev := range trace {
		if next < len(a.Tags) && ev.Tag == a.Tags[next] {
			next++
		}
	}
	if next == len(a.Tags) {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceOrder,
		Expected: a.Tags,
		Actual:   traceTags(trace),
		Message:  fmt.Sprintf("expected order %v, %q not found in order (trace: %v)", a.Tags, a.Tags[next], traceTags(trace)),
	}
}

func assertTraceCount(trace []TraceEvent, a Assertion) error {
	n := 0
	for _, ev := range trace {
		if ev.Tag == a.Tag {
			n++
		}
	}
	if n == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertTraceCount,
		Expected: a.Count,
		Actual:   n,
		Message:  fmt.Sprintf("tag %q dispatched %d times, expected %d", a.Tag, n, a.Count),
	}
}

// assertFinalState compares the listed snapshot fields by JSON value.
func assertFinalState(result *Result, a Assertion) error {
	var got map[string]any
	if err := roundTrip(result.State, &got); err != nil {
		return err
	}
	var want map[string]any
	if err := roundTrip(a.Expect, &want); err != nil {
		return err
	}

	keys := make([]string, 0, len(want))
	for k := range want {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		actual, ok := got[k]
		if !ok {
			return &AssertionError{Type: AssertFinalState, Message: fmt.Sprintf("unknown state field %q", k)}
		}
		if diff := cmp.Diff(want[k], actual); diff != "" {
			return &AssertionError{
				Type:     AssertFinalState,
				Expected: want[k],
				Actual:   actual,
				Message:  fmt.Sprintf("%s mismatch (-want +got):\n%s", k, diff),
			}
		}
	}
	return nil
}

func assertStored(actx *AssertionContext, a Assertion) error {
	if actx == nil || actx.Backend == nil {
		return fmt.Errorf("no store available")
	}
	ctx := actx.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	v, ok, err := actx.Backend.Get(ctx, a.Key)
	if err != nil {
		return fmt.Errorf("read %q: %w", a.Key, err)
	}
	switch {
	case a.Value == nil && ok:
		return &AssertionError{Type: AssertStored, Actual: v, Message: fmt.Sprintf("key %q should be absent, holds %q", a.Key, v)}
	case a.Value != nil && !ok:
		return &AssertionError{Type: AssertStored, Expected: *a.Value, Message: fmt.Sprintf("key %q is absent", a.Key)}
	case a.Value != nil && v != *a.Value:
		return &AssertionError{
			Type:     AssertStored,
			Expected: *a.Value,
			Actual:   v,
			Message:  fmt.Sprintf("key %q holds %q, expected %q", a.Key, v, *a.Value),
		}
	}
	return nil
}

// argsPrefix reports whether want matches the leading args by JSON value.
func argsPrefix(args, want []any) bool {
	if len(want) > len(args) {
		return false
	}
	for i := range want {
		if !valuesEqual(args[i], want[i]) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values after normalizing them through JSON, so
// YAML ints and decoded float64s compare equal.
func valuesEqual(a, b any) bool {
	var na, nb any
	if roundTrip(a, &na) != nil || roundTrip(b, &nb) != nil {
		return false
	}
	return cmp.Equal(na, nb)
}

func roundTrip(v any, dst any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func traceTags(trace []TraceEvent) []string {
	out := make([]string, 0, len(trace))
	for _, ev := range trace {
		out = append(out, ev.Tag)
	}
	return out
}
