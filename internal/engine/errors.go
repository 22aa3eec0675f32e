package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/cprum/internal/ir"
)

// DispatchErrorCode categorizes dispatch failures.
type DispatchErrorCode string

const (
	// ErrCodeHandlerFailed indicates the handler returned an error.
	ErrCodeHandlerFailed DispatchErrorCode = "HANDLER_FAILED"

	// ErrCodeHandlerPanic indicates the handler panicked.
	ErrCodeHandlerPanic DispatchErrorCode = "HANDLER_PANIC"
)

// DispatchError describes one command whose handler failed.
//
// Dispatch errors never reach Tag callers; they are reported to the
// diagnostics logger and the drain continues.
type DispatchError struct {
	Code  DispatchErrorCode
	Seq   int64
	Name  string
	Err   error
	Panic any
}

// Error implements the error interface.
func (e *DispatchError) Error() string {
	if e.Code == ErrCodeHandlerPanic {
		return fmt.Sprintf("%s: tag %q (seq=%d): %v", e.Code, e.Name, e.Seq, e.Panic)
	}
	return fmt.Sprintf("%s: tag %q (seq=%d): %v", e.Code, e.Name, e.Seq, e.Err)
}

// Unwrap returns the handler error, if any.
func (e *DispatchError) Unwrap() error {
	return e.Err
}

// NewHandlerError wraps an error returned by a handler.
func NewHandlerError(cmd ir.Command, err error) *DispatchError {
	return &DispatchError{
		Code: ErrCodeHandlerFailed,
		Seq:  cmd.Seq,
		Name: cmd.Name,
		Err:  err,
	}
}

// NewPanicError wraps a value recovered from a panicking handler.
func NewPanicError(cmd ir.Command, recovered any) *DispatchError {
	var err error
	if e, ok := recovered.(error); ok {
		err = e
	}
	return &DispatchError{
		Code:  ErrCodeHandlerPanic,
		Seq:   cmd.Seq,
		Name:  cmd.Name,
		Err:   err,
		Panic: recovered,
	}
}

// IsPanicError returns true if err is a dispatch error caused by a panic.
// Uses errors.As to handle wrapped errors.
func IsPanicError(err error) bool {
	var de *DispatchError
	if errors.As(err, &de) {
		return de.Code == ErrCodeHandlerPanic
	}
	return false
}
