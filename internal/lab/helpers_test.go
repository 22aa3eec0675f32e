package lab

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/roach88/cprum/internal/capture"
	"github.com/roach88/cprum/internal/engine"
	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/state"
	"github.com/roach88/cprum/internal/store"
	"github.com/roach88/cprum/internal/testutil"
	"github.com/roach88/cprum/internal/xhr"
)

// toasts records toast calls.
type toasts struct {
	mu  sync.Mutex
	got []notify.Toast
}

func (ts *toasts) Toast(message string, kind notify.Kind, opts notify.ToastOptions) notify.Toast {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	t := notify.Toast{Kind: kind, Message: message, TTL: notify.ClampTTL(opts.TTL)}
	ts.got = append(ts.got, t)
	return t
}

func (ts *toasts) messages() []string {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	out := make([]string, len(ts.got))
	for i, t := range ts.got {
		out[i] = t.Message
	}
	return out
}

type fixture struct {
	srv    *httptest.Server
	state  *state.State
	engine *engine.Engine
	toasts *toasts
	lab    *ErrorLab
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc(PathSample, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"Visca el Barça"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	dead := httptest.NewServer(http.NotFoundHandler())
	unreachable := dead.URL + "/this-will-fail"
	dead.Close()

	st := state.New(store.NewKV(store.NewMemory()),
		state.WithSessionGenerator(testutil.NewFixedSessionGenerator("")))
	eng := engine.New(nil)
	engine.RegisterTagHandlers(eng, st)

	ic := capture.New(st)
	fetch := &http.Client{Transport: srv.Client().Transport}
	ic.InstallFetch(fetch)
	xc := xhr.NewClient(srv.Client())
	ic.InstallXHR(xc)

	ts := &toasts{}
	lab := NewErrorLab(ErrorLabConfig{
		BaseURL:   srv.URL + "/",
		Capture:   ic,
		Fetch:     fetch,
		XHR:       xc,
		Resources: srv.Client(),
		Toaster:   ts,
		Clearer:   st,

		// Connection refused, without depending on DNS.
		Unreachable: unreachable,
	})
	return &fixture{srv: srv, state: st, engine: eng, toasts: ts, lab: lab}
}
