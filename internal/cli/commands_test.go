package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/cprum/internal/lab"
)

// cliEnv is a store path plus a local HTTP server shared by one test.
type cliEnv struct {
	db  string
	srv *httptest.Server
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(lab.PathSample, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Visca el Barça"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return &cliEnv{db: filepath.Join(t.TempDir(), "cprum.db"), srv: srv}
}

// run executes the CLI against the env and returns stdout, stderr and the
// command error.
func (e *cliEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(append([]string{"--db", e.db, "--base-url", e.srv.URL}, args...))

	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// runJSON runs with --format json and decodes the response.
func (e *cliEnv) runJSON(t *testing.T, args ...string) (CLIResponse, error) {
	t.Helper()
	stdout, _, err := e.run(t, append([]string{"--format", "json"}, args...)...)
	var resp CLIResponse
	if stdout != "" {
		require.NoError(t, json.Unmarshal([]byte(stdout), &resp), stdout)
	}
	return resp, err
}

func dataMap(t *testing.T, resp CLIResponse) map[string]any {
	t.Helper()
	m, ok := resp.Data.(map[string]any)
	require.True(t, ok, "data is %T", resp.Data)
	return m
}

func TestTag_PersistsAcrossInvocations(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "tag", "pageGroup", "Shop")
	require.NoError(t, err)
	_, _, err = env.run(t, "tag", "tracepoint", "checkout", `{"step":2}`)
	require.NoError(t, err)

	resp, err := env.runJSON(t, "tag", "logging", "true")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.Session)

	snap := dataMap(t, resp)
	assert.Equal(t, "Shop", snap["pageGroup"])
	assert.Equal(t, true, snap["logging"])
	assert.Equal(t, map[string]any{"checkout": map[string]any{"step": float64(2)}}, snap["tracepoints"])
}

func TestTag_TextOutputShowsState(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "tag", "pageGroup", "Home")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Home")
}

func TestParseArgs(t *testing.T) {
	got := parseArgs([]string{"true", "2", "Shop", `{"a":1}`, "null"})
	assert.Equal(t, []any{true, float64(2), "Shop", map[string]any{"a": float64(1)}, nil}, got)
}

func TestClear_RemovesTracePoints(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "tag", "tracepoint", "a", "1")
	require.NoError(t, err)

	resp, err := env.runJSON(t, "clear")
	require.NoError(t, err)
	assert.Empty(t, dataMap(t, resp)["tracepoints"])
}

func TestHUD_TextIsPanel(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "hud")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Debug HUD")
	assert.Contains(t, stdout, "Last network")
}

func TestHUD_ToggleLoggingPrintsToast(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "hud", "--toggle-logging")
	require.NoError(t, err)
	state := dataMap(t, resp)["state"].(map[string]any)
	assert.Equal(t, true, state["logging"])

	_, stderr, err := env.run(t, "hud", "--toggle-logging")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Logging: off")
}

func TestTheme(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "theme", "dark")
	require.NoError(t, err)
	assert.Equal(t, "dark (dark)\n", stdout)

	resp, err := env.runJSON(t, "theme")
	require.NoError(t, err)
	assert.Equal(t, "system", dataMap(t, resp)["mode"])

	resp, err = env.runJSON(t, "theme", "sepia")
	require.NoError(t, err)
	assert.Equal(t, "system", dataMap(t, resp)["mode"])
}

func TestFavorites(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "favorites")
	require.NoError(t, err)
	assert.Equal(t, "(no favorites)\n", stdout)

	_, stderr, err := env.run(t, "favorites", "add", "pedri")
	require.NoError(t, err)
	assert.Contains(t, stderr, "Added to favorites!")

	_, _, err = env.run(t, "favorites", "add", "gavi")
	require.NoError(t, err)
	_, _, err = env.run(t, "favorites", "remove", "pedri")
	require.NoError(t, err)

	resp, err := env.runJSON(t, "favorites")
	require.NoError(t, err)
	assert.Equal(t, []any{"gavi"}, resp.Data)
}

func TestFetch_OK(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "fetch", lab.PathSample)
	require.NoError(t, err)

	ev := dataMap(t, resp)
	assert.Equal(t, "fetch", ev["kind"])
	assert.Equal(t, float64(200), ev["status"])
	assert.Equal(t, true, ev["ok"])
	assert.Equal(t, env.srv.URL+lab.PathSample, ev["url"])
}

func TestFetch_NotFoundFails(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "fetch", "--xhr", "/missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	ev := dataMap(t, resp)
	assert.Equal(t, "xhr", ev["kind"])
	assert.Equal(t, float64(404), ev["status"])
}

func TestResolveURL(t *testing.T) {
	assert.Equal(t, "http://h/a/b", resolveURL("http://h/", "/a/b"))
	assert.Equal(t, "http://h/a", resolveURL("http://h", "a"))
	assert.Equal(t, "https://x/y", resolveURL("http://h", "https://x/y"))
}

func TestLabError_List(t *testing.T) {
	env := newCLIEnv(t)

	stdout, _, err := env.run(t, "lab", "error", "--list")
	require.NoError(t, err)
	assert.Contains(t, stdout, string(lab.ScenarioThrow))
	assert.Contains(t, stdout, string(lab.ScenarioXHRFail))
}

func TestLabError_Throw(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "lab", "error", "throw")
	require.NoError(t, err)

	detail := dataMap(t, resp)["detail"].(map[string]any)
	assert.Contains(t, detail["lastError"], "Error Lab: panic")
}

func TestLabError_FetchOK(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "lab", "error", "fetch-ok")
	require.NoError(t, err)

	detail := dataMap(t, resp)["detail"].(map[string]any)
	assert.Contains(t, detail["lastNetwork"], `"status": 200`)
}

func TestLabError_UnknownScenario(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "lab", "error", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestLabCompute(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "lab", "compute", "--limit", "10")
	require.NoError(t, err)

	data := dataMap(t, resp)
	detail := data["detail"].(map[string]any)
	assert.Equal(t, float64(lab.MinComputeLimit), detail["Limit"])
	assert.Equal(t, float64(669), detail["Primes"])
	assert.Contains(t, data["tracepoints"], lab.TraceCompute)
}

func TestLabStorm(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "lab", "storm", "--count", "1000", "--for", "20ms")
	require.NoError(t, err)

	data := dataMap(t, resp)
	assert.Equal(t, "Stopped timer storm", data["action"])
	assert.Equal(t, map[string]any{"intervals": float64(lab.MaxStorm)}, data["detail"])
}

func TestLabLongTask(t *testing.T) {
	env := newCLIEnv(t)

	resp, err := env.runJSON(t, "lab", "longtask", "--duration", "1ms")
	require.NoError(t, err)

	data := dataMap(t, resp)
	assert.GreaterOrEqual(t, data["durationMs"], float64(lab.MinBusy.Milliseconds()))
	assert.Contains(t, data["tracepoints"], lab.TraceLongTask)
}

func TestConfigFile(t *testing.T) {
	env := newCLIEnv(t)

	dir := t.TempDir()
	dbPath := filepath.Join(dir, "from-config.db")
	cfgPath := filepath.Join(dir, "cprum.yaml")
	cfg := "db: " + dbPath + "\nbase_url: " + env.srv.URL + "\ntheme: dark\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	stdout := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "--format", "json", "fetch", lab.PathSample})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(dbPath)
	require.NoError(t, err, "store opened at the configured path")

	cmd = NewRootCommand()
	stdout.Reset()
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--config", cfgPath, "theme", "light"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "light (light)\n", stdout.String())
}

func TestConfigFile_Invalid(t *testing.T) {
	env := newCLIEnv(t)

	cfgPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("base_url: ftp://nope\n"), 0o644))

	_, _, err := env.run(t, "--config", cfgPath, "hud")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "failed to load config")
}

func TestExecute_ReportsFailureAsJSON(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "missing.yaml")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	code := Execute(context.Background(), []string{"--format", "json", "--config", cfgPath, "hud"}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp), stdout.String())
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeCommandError, resp.Error.Code)
	assert.Equal(t, "failed to load config", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

func TestExecute_FetchFailureInText(t *testing.T) {
	env := newCLIEnv(t)
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	args := []string{"--db", env.db, "--base-url", env.srv.URL, "fetch", "--xhr", "/missing"}
	code := Execute(context.Background(), args, stdout, stderr)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr.String(), "Error: request failed")
}

func TestExecute_FetchFailureInJSONIsOneResponse(t *testing.T) {
	env := newCLIEnv(t)
	stdout := &bytes.Buffer{}

	args := []string{"--format", "json", "--db", env.db, "--base-url", env.srv.URL, "fetch", "/missing"}
	code := Execute(context.Background(), args, stdout, &bytes.Buffer{})
	assert.Equal(t, ExitFailure, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &resp), stdout.String())
	assert.Equal(t, "ok", resp.Status, "the network event is the response")
	assert.Equal(t, float64(404), dataMap(t, resp)["status"])
}

func TestExecute_Success(t *testing.T) {
	env := newCLIEnv(t)
	args := []string{"--db", env.db, "--base-url", env.srv.URL, "tag", "pageGroup", "Shop"}
	assert.Equal(t, ExitSuccess, Execute(context.Background(), args, &bytes.Buffer{}, &bytes.Buffer{}))
}

func TestStorage_ListsPersistedKeys(t *testing.T) {
	env := newCLIEnv(t)

	_, _, err := env.run(t, "tag", "pageGroup", "Shop")
	require.NoError(t, err)

	stdout, _, err := env.run(t, "storage")
	require.NoError(t, err)
	assert.Contains(t, stdout, "cprum-pageGroup = Shop")
	assert.Contains(t, stdout, "theme = system")
}
