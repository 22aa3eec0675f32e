// Package page wires the runtime together into one explicit context object.
//
// A Page owns the store, the observability state, the DataLayer engine, the
// interceptors, the renderer and panel, and the toast and modal surfaces.
// Every component receives its dependencies from New; nothing is looked up
// globally, so tests construct as many independent pages as they need.
package page

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/roach88/cprum/internal/capture"
	"github.com/roach88/cprum/internal/engine"
	"github.com/roach88/cprum/internal/hud"
	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/state"
	"github.com/roach88/cprum/internal/store"
	"github.com/roach88/cprum/internal/timers"
	"github.com/roach88/cprum/internal/transport"
	"github.com/roach88/cprum/internal/xhr"
)

// Options configure a Page. The zero value is usable: an in-memory store,
// a fresh DataLayer and a default HTTP/2 client.
type Options struct {
	// Backend persists the store. Nil keeps everything in memory.
	Backend store.Backend
	// Layer is a DataLayer that may already hold pre-boot commands.
	Layer *engine.DataLayer
	// HTTPClient is the uninstrumented base client.
	HTTPClient *http.Client
	// Logger receives diagnostics. Consumer logs are gated by the logging
	// flag on top of it.
	Logger      *slog.Logger
	Sessions    state.SessionGenerator
	Clock       func() time.Time
	PrefersDark bool
	TaskLimit   int
	// OnToast is called for every toast shown.
	OnToast func(notify.Toast)
}

// Page is the runtime context.
type Page struct {
	kv       *store.KV
	state    *state.State
	engine   *engine.Engine
	capture  *capture.Interceptor
	doc      *hud.Document
	renderer *hud.Renderer
	panel    *hud.Panel
	toaster  *notify.Toaster
	modal    *notify.Modal
	timers   *timers.Group

	base  *http.Client
	fetch *http.Client
	xhr   *xhr.Client

	logger      *slog.Logger
	prefersDark bool

	readyMu   sync.Mutex
	whenReady []func()
}

// New wires a Page. Interceptors are installed exactly once here; commands
// already in opts.Layer are not dispatched until Boot.
func New(opts Options) (*Page, error) {
	base := opts.Logger
	if base == nil {
		base = slog.Default()
	}
	backend := opts.Backend
	if backend == nil {
		backend = store.NewMemory()
	}
	client := opts.HTTPClient
	if client == nil {
		c, err := transport.New(transport.DefaultOptions())
		if err != nil {
			return nil, fmt.Errorf("build http client: %w", err)
		}
		client = c
	}

	p := &Page{
		base:        client,
		prefersDark: opts.PrefersDark,
		timers:      timers.NewGroup(),
		doc:         hud.NewDocument(),
	}

	p.kv = store.NewKV(backend, store.WithLogger(base))

	stateOpts := []state.Option{state.WithBaseLogger(base)}
	if opts.Sessions != nil {
		stateOpts = append(stateOpts, state.WithSessionGenerator(opts.Sessions))
	}
	p.state = state.New(p.kv, stateOpts...)
	p.logger = p.state.Logger(base)

	p.engine = engine.New(opts.Layer, engine.WithLogger(p.logger))
	engine.RegisterTagHandlers(p.engine, p.state)

	captureOpts := []capture.Option{capture.WithLogger(p.logger)}
	if opts.Clock != nil {
		captureOpts = append(captureOpts, capture.WithClock(opts.Clock))
	}
	if opts.TaskLimit > 0 {
		captureOpts = append(captureOpts, capture.WithTaskLimit(opts.TaskLimit))
	}
	p.capture = capture.New(p.state, captureOpts...)

	// fetch and xhr share the base transport but are instrumented
	// separately so no request is recorded twice.
	p.fetch = &http.Client{
		Transport:     client.Transport,
		CheckRedirect: client.CheckRedirect,
		Jar:           client.Jar,
		Timeout:       client.Timeout,
	}
	p.capture.InstallFetch(p.fetch)
	p.xhr = xhr.NewClient(client)
	p.capture.InstallXHR(p.xhr)

	p.renderer = hud.NewRenderer(p.doc, hud.WithPrefersDark(opts.PrefersDark))
	p.state.Subscribe(p.renderer.Render)

	toastOpts := []notify.ToasterOption{
		notify.WithTimers(p.timers),
		notify.WithToastLog(p.state.Log),
	}
	if opts.OnToast != nil {
		toastOpts = append(toastOpts, notify.WithShowHook(opts.OnToast))
	}
	p.toaster = notify.NewToaster(toastOpts...)
	p.modal = notify.NewModal(p.state.Log)
	p.panel = hud.NewPanel(p.renderer, p.state, p.engine,
		hud.WithNotifier(func(message, kind string, ttl time.Duration) {
			p.toaster.Toast(message, notify.Kind(kind), notify.ToastOptions{TTL: ttl})
		}),
		hud.WithPanelLog(p.state.Log),
	)

	return p, nil
}

// Boot applies the saved theme, drains the DataLayer from its first entry,
// renders and marks the page ready. Callbacks registered with WhenReady run
// afterwards. Returns false if the page was already booted.
func (p *Page) Boot() bool {
	if p.state.Ready() {
		return false
	}
	p.ApplyTheme(p.state.Snapshot().Theme)
	p.engine.Process()
	p.renderer.Render(p.state.Snapshot())

	if !p.state.MarkReady() {
		return false
	}

	p.readyMu.Lock()
	pending := p.whenReady
	p.whenReady = nil
	p.readyMu.Unlock()
	for _, fn := range pending {
		p.capture.Guard(fn)
	}

	p.Log("boot:ready", "session", p.state.SessionID())
	return true
}

// WhenReady runs fn now if the page is booted, otherwise right after Boot.
func (p *Page) WhenReady(fn func()) {
	p.readyMu.Lock()
	if !p.state.Ready() {
		p.whenReady = append(p.whenReady, fn)
		p.readyMu.Unlock()
		return
	}
	p.readyMu.Unlock()
	p.capture.Guard(fn)
}

// Tag appends a command to the DataLayer and processes it.
func (p *Page) Tag(name string, args ...any) int64 {
	return p.engine.Tag(name, args...)
}

// Toast shows a transient notification.
func (p *Page) Toast(message string, kind notify.Kind, opts notify.ToastOptions) notify.Toast {
	return p.toaster.Toast(message, kind, opts)
}

// OpenModal shows a dialog.
func (p *Page) OpenModal(opts notify.ModalOptions) {
	p.modal.Open(opts)
}

// CloseModal hides the dialog, if any.
func (p *Page) CloseModal() bool {
	return p.modal.Close()
}

// Log writes a diagnostic record while logging is enabled.
func (p *Page) Log(msg string, args ...any) {
	p.state.Log(msg, args...)
}

// LastError returns the last captured error, or nil.
func (p *Page) LastError() *ir.ErrorEvent {
	return p.state.LastError()
}

// LastNetwork returns the last settled request, or nil.
func (p *Page) LastNetwork() *ir.NetworkEvent {
	return p.state.LastNetwork()
}

// HandleKey routes a key press: an open modal gets it first, then the HUD
// shortcut. Returns true when the key was consumed.
func (p *Page) HandleKey(k hud.Key) bool {
	if p.modal.IsOpen() && p.modal.HandleKey(k) {
		return true
	}
	return p.panel.HandleKey(k)
}

// Close stops timers and waits for detached tasks. The store backend is
// closed too.
func (p *Page) Close() error {
	p.timers.StopAll()
	p.capture.Wait()
	return p.kv.Backend().Close()
}

// Accessors for surfaces and plumbing.

func (p *Page) State() *state.State { return p.state }
func (p *Page) Engine() *engine.Engine { return p.engine }
func (p *Page) Capture() *capture.Interceptor { return p.capture }
func (p *Page) Document() *hud.Document { return p.doc }
func (p *Page) Renderer() *hud.Renderer { return p.renderer }
func (p *Page) Panel() *hud.Panel { return p.panel }
func (p *Page) Toaster() *notify.Toaster { return p.toaster }
func (p *Page) Modal() *notify.Modal { return p.modal }
func (p *Page) Timers() *timers.Group { return p.timers }
func (p *Page) KV() *store.KV { return p.kv }
func (p *Page) Fetch() *http.Client { return p.fetch }
func (p *Page) XHR() *xhr.Client { return p.xhr }
func (p *Page) BaseClient() *http.Client { return p.base }
