// Package capture installs the process-wide error and network interceptors.
//
// Every capture point normalizes what it sees into an ir.ErrorEvent or
// ir.NetworkEvent and hands it to a Recorder (the shared state). Interception
// is additive: wrapped calls return exactly what they would have returned
// without it.
//
// Capture points:
//   - Guard / ScriptError / ResourceError: synchronous failures
//   - Go / Rejection: failures of detached tasks nobody waits on
//   - Fetch / InstallFetch: http.RoundTripper decorator
//   - InstallXHR: hook on the callback-style xhr.Client
package capture
