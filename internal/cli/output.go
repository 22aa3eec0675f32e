package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Exit codes for cprum commands.
const (
	ExitSuccess      = 0 // Command completed
	ExitFailure      = 1 // A request returned a non-ok status or a lab scenario failed
	ExitCommandError = 2 // Bad flags or arguments, invalid config, or the store could not be opened
)

// Error codes carried in JSON error responses, one per non-zero exit code.
const (
	CodeFailure      = "E001"
	CodeCommandError = "E002"
)

// ExitError carries the exit code a command failure maps to.
type ExitError struct {
	Code    int    // ExitFailure or ExitCommandError
	Message string // What the command was doing
	Err     error  // Cause, if any

	// Reported is set when the command already wrote its result, so JSON
	// mode must not append a second response.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Errors that are not an ExitError (cobra's own argument errors included)
// map to ExitFailure.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode returns the response code for an exit code.
func errorCode(exit int) string {
	if exit == ExitCommandError {
		return CodeCommandError
	}
	return CodeFailure
}

// OutputFormatter writes command results as text or as one JSON response
// per invocation.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Toasts and verbose lines (defaults to Writer)
	Verbose   bool
	Session   string // Page session ID, stamped on JSON responses when set
}

// CLIResponse is the JSON envelope for every command.
type CLIResponse struct {
	Status  string    `json:"status"`            // "ok" or "error"
	Data    any       `json:"data,omitempty"`    // success payload
	Error   *CLIError `json:"error,omitempty"`   // error details
	Session string    `json:"session,omitempty"` // RUM session correlation
}

// CLIError is the error part of a JSON response.
type CLIError struct {
	Code    string `json:"code"`              // CodeFailure or CodeCommandError
	Message string `json:"message"`           // what the command was doing
	Details any    `json:"details,omitempty"` // underlying cause
}

// Success writes a command result: the value's String form in text mode, or
// an "ok" response carrying it as data.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "ok",
			Data:    data,
			Session: f.Session,
		})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error writes an error response. Text mode prints "Error [code]: message"
// and, under --verbose, the details.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status:  "error",
			Session: f.Session,
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports a failed command. JSON mode writes an error response to
// Writer; text mode writes one "Error:" line to the diagnostics writer.
func (f *OutputFormatter) Fail(err error) {
	if err == nil {
		return
	}
	if f.Format != "json" {
		fmt.Fprintln(f.GetErrWriter(), "Error:", err)
		return
	}

	message := err.Error()
	var details any
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		if exitErr.Reported {
			return
		}
		message = exitErr.Message
		if exitErr.Err != nil {
			details = exitErr.Err.Error()
		}
	}
	_ = f.Error(errorCode(GetExitCode(err)), message, details)
}

// VerboseLog writes a line to the diagnostics writer when --verbose is set,
// keeping JSON on Writer intact.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	w := f.ErrWriter
	if w == nil {
		w = f.Writer
	}
	fmt.Fprintf(w, format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
