package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxSteps bounds one drain pass.
const DefaultMaxSteps = 100000

// QuotaEnforcer counts dispatches within one drain pass and enforces a
// maximum.
//
// A handler that tags from inside itself keeps the drain going for as long
// as it keeps tagging. The quota pauses such a pass; the entries left
// behind stay queued and are dispatched by the next Process call, so no
// command is skipped.
type QuotaEnforcer struct {
	maxSteps int // Maximum dispatches per pass, <= 0 for unlimited
	current  int // Dispatches so far
}

// NewQuotaEnforcer creates a new quota enforcer with the given limit.
func NewQuotaEnforcer(maxSteps int) *QuotaEnforcer {
	return &QuotaEnforcer{maxSteps: maxSteps}
}

// Check increments the step counter and validates against the limit.
//
// Returns StepsExceededError if the quota is exceeded.
func (q *QuotaEnforcer) Check(cursor int) error {
	q.current++
	if q.maxSteps > 0 && q.current > q.maxSteps {
		return &StepsExceededError{
			Cursor: cursor,
			Steps:  q.current,
			Limit:  q.maxSteps,
		}
	}
	return nil
}

// Current returns the current step count.
func (q *QuotaEnforcer) Current() int {
	return q.current
}

// MaxSteps returns the maximum steps limit.
func (q *QuotaEnforcer) MaxSteps() int {
	return q.maxSteps
}

// StepsExceededError is reported when a drain pass hits the quota.
type StepsExceededError struct {
	Cursor int // Index of the first entry left queued
	Steps  int // Number of steps taken
	Limit  int // Maximum allowed steps
}

// Error implements the error interface.
func (e *StepsExceededError) Error() string {
	return fmt.Sprintf("drain paused at cursor %d: %d steps > %d limit",
		e.Cursor, e.Steps, e.Limit)
}

// IsStepsExceededError returns true if the error is a StepsExceededError.
// Uses errors.As to handle wrapped errors.
func IsStepsExceededError(err error) bool {
	var se *StepsExceededError
	return errors.As(err, &se)
}
