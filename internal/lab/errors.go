package lab

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/roach88/cprum/internal/capture"
	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/xhr"
)

// Scenario names an error lab action.
type Scenario string

const (
	ScenarioThrow                Scenario = "throw"
	ScenarioNilMap               Scenario = "nil-map"
	ScenarioNilFunc              Scenario = "nil-func"
	ScenarioJSON                 Scenario = "json"
	ScenarioUnhandled            Scenario = "unhandled"
	ScenarioAsyncThrow           Scenario = "async-throw"
	ScenarioFetchRejectHandled   Scenario = "fetch-reject-handled"
	ScenarioFetchRejectUnhandled Scenario = "fetch-reject-unhandled"
	ScenarioImage404             Scenario = "img-404"
	ScenarioScript404            Scenario = "script-404"
	ScenarioCSS404               Scenario = "css-404"
	ScenarioFetchOK              Scenario = "fetch-ok"
	ScenarioFetch404             Scenario = "fetch-404"
	ScenarioFetchSlow            Scenario = "fetch-slow"
	ScenarioXHROK                Scenario = "xhr-ok"
	ScenarioXHRFail              Scenario = "xhr-fail"
	ScenarioClear                Scenario = "clear"
)

// Paths requested by the network scenarios, relative to the base URL.
const (
	PathSample      = "/data/sample.json"
	PathMissing     = "/data/this-file-does-not-exist.json"
	PathMissingXHR  = "/data/does-not-exist-xhr.json"
	PathBrokenImage = "/assets/img/does-not-exist-404.svg"
	PathBadScript   = "/assets/js/bad-url-does-not-exist.js"
	PathBadCSS      = "/assets/css/this-file-does-not-exist.css"

	// UnreachableURL never resolves.
	UnreachableURL = "https://example.invalid/this-will-fail"
)

// SlowFetchDelay is the artificial delay of the slow fetch scenario.
const SlowFetchDelay = 1600 * time.Millisecond

// ErrUnknownScenario is returned by Run for a name it does not know.
var ErrUnknownScenario = errors.New("unknown scenario")

// Clearer forgets the last error and last network event.
type Clearer interface {
	ClearLast()
}

// ErrorLab triggers failures of every captured kind.
type ErrorLab struct {
	BaseURL     string
	Unreachable string

	capture   *capture.Interceptor
	fetch     *http.Client
	xhr       *xhr.Client
	resources *http.Client
	toast     Toaster
	clear     Clearer

	inflight sync.WaitGroup
}

// ErrorLabConfig wires an ErrorLab.
type ErrorLabConfig struct {
	BaseURL string
	Capture *capture.Interceptor
	// Fetch and XHR should already be instrumented.
	Fetch *http.Client
	XHR   *xhr.Client
	// Resources loads images, scripts and stylesheets. It is not
	// instrumented: resource loads are not fetches.
	Resources *http.Client
	Toaster   Toaster
	Clearer   Clearer

	// Unreachable overrides UnreachableURL.
	Unreachable string
}

// NewErrorLab creates an ErrorLab.
func NewErrorLab(cfg ErrorLabConfig) *ErrorLab {
	if cfg.Resources == nil {
		cfg.Resources = http.DefaultClient
	}
	if cfg.Unreachable == "" {
		cfg.Unreachable = UnreachableURL
	}
	return &ErrorLab{
		BaseURL:     strings.TrimSuffix(cfg.BaseURL, "/"),
		Unreachable: cfg.Unreachable,
		capture:     cfg.Capture,
		fetch:       cfg.Fetch,
		xhr:         cfg.XHR,
		resources:   cfg.Resources,
		toast:       cfg.Toaster,
		clear:       cfg.Clearer,
	}
}

// Scenarios lists every scenario name, sorted.
func Scenarios() []Scenario {
	out := make([]Scenario, 0, len(scenarioTable))
	for s := range scenarioTable {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var scenarioTable = map[Scenario]func(*ErrorLab, context.Context){
	ScenarioThrow:                (*ErrorLab).throw,
	ScenarioNilMap:               (*ErrorLab).nilMap,
	ScenarioNilFunc:              (*ErrorLab).nilFunc,
	ScenarioJSON:                 (*ErrorLab).invalidJSON,
	ScenarioUnhandled:            (*ErrorLab).unhandled,
	ScenarioAsyncThrow:           (*ErrorLab).asyncThrow,
	ScenarioFetchRejectHandled:   (*ErrorLab).fetchRejectHandled,
	ScenarioFetchRejectUnhandled: (*ErrorLab).fetchRejectUnhandled,
	ScenarioImage404:             (*ErrorLab).brokenImage,
	ScenarioScript404:            (*ErrorLab).scriptLoadError,
	ScenarioCSS404:               (*ErrorLab).cssLoadError,
	ScenarioFetchOK:              (*ErrorLab).fetchSuccess,
	ScenarioFetch404:             (*ErrorLab).fetch404,
	ScenarioFetchSlow:            (*ErrorLab).fetchSlow,
	ScenarioXHROK:                (*ErrorLab).xhrSuccess,
	ScenarioXHRFail:              (*ErrorLab).xhrFail,
	ScenarioClear:                (*ErrorLab).clearPanels,
}

// Run starts scenario s. Asynchronous scenarios keep running after Run
// returns; call Wait to block until they settle.
func (l *ErrorLab) Run(ctx context.Context, s Scenario) error {
	fn, ok := scenarioTable[s]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, s)
	}
	fn(l, ctx)
	return nil
}

// Wait blocks until every detached task and in-flight request has settled.
func (l *ErrorLab) Wait() {
	l.inflight.Wait()
	l.capture.Wait()
}

func (l *ErrorLab) url(path string) string {
	return l.BaseURL + path
}

// Synchronous failures.

func (l *ErrorLab) throw(context.Context) {
	l.capture.Guard(func() {
		panic(errors.New("Error Lab: panic (sync, uncaught)"))
	})
}

func (l *ErrorLab) nilMap(context.Context) {
	l.capture.Guard(func() {
		var counts map[string]int
		counts["clicks"]++
	})
}

func (l *ErrorLab) nilFunc(context.Context) {
	l.capture.Guard(func() {
		var handler func()
		handler()
	})
}

func (l *ErrorLab) invalidJSON(context.Context) {
	l.capture.Guard(func() {
		var v any
		if err := json.Unmarshal([]byte("{ this is: not json }"), &v); err != nil {
			panic(err)
		}
	})
}

// Detached failures.

func (l *ErrorLab) unhandled(context.Context) {
	l.capture.Go(func() error {
		return errors.New("Error Lab: unhandled promise rejection")
	})
}

func (l *ErrorLab) asyncThrow(context.Context) {
	l.capture.Go(func() error {
		runtime.Gosched()
		return errors.New("Error Lab: async function throw after await")
	})
}

func (l *ErrorLab) fetchRejectHandled(ctx context.Context) {
	l.capture.Go(func() error {
		resp, err := l.get(ctx, l.Unreachable)
		if err != nil {
			l.toast.Toast("Handled fetch rejection: "+err.Error(), notify.KindInfo,
				notify.ToastOptions{TTL: 2600 * time.Millisecond})
			return nil
		}
		resp.Body.Close()
		return nil
	})
}

func (l *ErrorLab) fetchRejectUnhandled(ctx context.Context) {
	l.capture.Go(func() error {
		resp, err := l.get(ctx, l.Unreachable+"-unhandled")
		if err != nil {
			return err
		}
		resp.Body.Close()
		return nil
	})
}

func (l *ErrorLab) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return l.fetch.Do(req)
}

// Resource failures.

func (l *ErrorLab) brokenImage(ctx context.Context) {
	l.loadResource(ctx, "img", PathBrokenImage, "")
}

func (l *ErrorLab) scriptLoadError(ctx context.Context) {
	l.loadResource(ctx, "script", PathBadScript, "Script load error fired (check Network).")
}

func (l *ErrorLab) cssLoadError(ctx context.Context) {
	l.loadResource(ctx, "link", PathBadCSS, "CSS load error fired.")
}

// loadResource fetches a resource the way an element would and reports a
// resource error when it fails to load.
func (l *ErrorLab) loadResource(ctx context.Context, tag, path, onError string) {
	url := l.url(path)
	failed := true
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err == nil {
		resp, err := l.resources.Do(req)
		if err == nil {
			_, _ = io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
			failed = resp.StatusCode >= 400
		}
	}
	if !failed {
		return
	}
	l.capture.ResourceError(tag, url)
	if onError != "" {
		l.toast.Toast(onError, notify.KindDanger, notify.ToastOptions{TTL: 2600 * time.Millisecond})
	}
}

// Network scenarios.

type sample struct {
	Message string `json:"message"`
}

func (l *ErrorLab) fetchSuccess(ctx context.Context) {
	l.capture.Go(func() error {
		resp, err := l.get(ctx, l.url(PathSample))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		var data sample
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return fmt.Errorf("decode sample: %w", err)
		}
		l.toast.Toast("Fetch success: "+data.Message, notify.KindOK,
			notify.ToastOptions{TTL: 2200 * time.Millisecond})
		return nil
	})
}

func (l *ErrorLab) fetch404(ctx context.Context) {
	l.capture.Go(func() error {
		resp, err := l.get(ctx, l.url(PathMissing))
		if err != nil {
			return err
		}
		resp.Body.Close()
		ok := resp.StatusCode >= 200 && resp.StatusCode < 300
		kind := notify.KindDanger
		if ok {
			kind = notify.KindOK
		}
		l.toast.Toast(fmt.Sprintf("Fetch completed (ok=%t) status=%d", ok, resp.StatusCode), kind,
			notify.ToastOptions{TTL: 2600 * time.Millisecond})
		return nil
	})
}

func (l *ErrorLab) fetchSlow(ctx context.Context) {
	l.capture.Go(func() error {
		resp, err := capture.SlowFetch(ctx, l.fetch, l.url(PathSample), SlowFetchDelay)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		var data sample
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			return fmt.Errorf("decode sample: %w", err)
		}
		l.toast.Toast("Slow fetch done: "+data.Message, notify.KindOK,
			notify.ToastOptions{TTL: 2200 * time.Millisecond})
		return nil
	})
}

func (l *ErrorLab) xhrSuccess(ctx context.Context) {
	r := l.xhr.New()
	r.Open(http.MethodGet, l.url(PathSample)+"?xhr=1")
	r.AddEventListener(xhr.EventLoad, func() {
		l.toast.Toast(fmt.Sprintf("XHR success: %d", r.Status()), notify.KindOK,
			notify.ToastOptions{TTL: 1800 * time.Millisecond})
	})
	l.send(ctx, r)
}

func (l *ErrorLab) xhrFail(ctx context.Context) {
	r := l.xhr.New()
	r.Open(http.MethodGet, l.url(PathMissingXHR))
	r.AddEventListener(xhr.EventLoad, func() {
		status := r.Status()
		kind := notify.KindDanger
		if status >= 200 && status < 400 {
			kind = notify.KindOK
		}
		l.toast.Toast(fmt.Sprintf("XHR completed: %d", status), kind,
			notify.ToastOptions{TTL: 2000 * time.Millisecond})
	})
	r.AddEventListener(xhr.EventError, func() {
		l.toast.Toast("XHR network error", notify.KindDanger,
			notify.ToastOptions{TTL: 2000 * time.Millisecond})
	})
	l.send(ctx, r)
}

func (l *ErrorLab) send(ctx context.Context, r *xhr.Request) {
	if err := r.Send(ctx, nil); err != nil {
		return
	}
	l.inflight.Add(1)
	go func() {
		defer l.inflight.Done()
		r.Wait()
	}()
}

func (l *ErrorLab) clearPanels(context.Context) {
	l.clear.ClearLast()
	l.toast.Toast("Cleared last error + network", notify.KindInfo,
		notify.ToastOptions{TTL: 1600 * time.Millisecond})
}
