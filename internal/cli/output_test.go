package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "json",
		Writer:  buf,
		Session: "s-1",
	}

	require.NoError(t, formatter.Success(map[string]string{"pageGroup": "Shop"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, "s-1", resp.Session)
	assert.Equal(t, map[string]any{"pageGroup": "Shop"}, resp.Data)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	details := map[string]string{"scenario": "nope"}
	require.NoError(t, formatter.Error("E010", "unknown scenario", details))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E010", resp.Error.Code)
	assert.Equal(t, "unknown scenario", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
	assert.Empty(t, resp.Session)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	require.NoError(t, formatter.Success("Tracepoints cleared"))
	assert.Equal(t, "Tracepoints cleared\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{
				Format:  "text",
				Writer:  buf,
				Verbose: tt.verbose,
			}

			require.NoError(t, formatter.Error("E020", "request failed", "status 0"))
			assert.Contains(t, buf.String(), "Error [E020]: request failed")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: status 0")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   true,
	}

	formatter.VerboseLog("opening store %s", "cprum.db")
	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "opening store cprum.db")
	assert.Same(t, errOut, formatter.GetErrWriter())
}

func TestOutputFormatter_FailJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf, Session: "s-2"}

	formatter.Fail(WrapExitError(ExitCommandError, "failed to open store", errors.New("disk full")))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "s-2", resp.Session)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeCommandError, resp.Error.Code)
	assert.Equal(t, "failed to open store", resp.Error.Message)
	assert.Equal(t, "disk full", resp.Error.Details)
}

func TestOutputFormatter_FailPlainErrorJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	formatter.Fail(errors.New(`unknown command "nope" for "cprum"`))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeFailure, resp.Error.Code)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_FailTextGoesToErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: out, ErrWriter: errOut}

	formatter.Fail(NewExitError(ExitFailure, "request failed"))
	formatter.Fail(nil)

	assert.Empty(t, out.String())
	assert.Equal(t, "Error: request failed\n", errOut.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad args")))
	wrapped := fmt.Errorf("outer: %w", WrapExitError(ExitFailure, "failed", errors.New("boom")))
	assert.Equal(t, ExitFailure, GetExitCode(wrapped))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, "failed: boom", WrapExitError(ExitFailure, "failed", errors.New("boom")).Error())
}
