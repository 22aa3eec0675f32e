package hud

import (
	"strings"
	"sync"
	"time"

	"github.com/roach88/cprum/internal/state"
)

// PanelState is the visibility of the HUD panel.
type PanelState int

const (
	PanelClosed PanelState = iota
	PanelOpen
)

func (s PanelState) String() string {
	if s == PanelOpen {
		return "open"
	}
	return "closed"
}

// Element IDs of the panel's sections.
const (
	PanelStateID   = "cprum-hud-state"
	PanelErrorID   = "cprum-hud-error"
	PanelNetworkID = "cprum-hud-network"
)

// Key is a keyboard event.
type Key struct {
	Name  string
	Ctrl  bool
	Shift bool
	Alt   bool
}

// IsToggle reports whether k is the HUD shortcut, Ctrl+Shift+D.
func (k Key) IsToggle() bool {
	return k.Ctrl && k.Shift && strings.EqualFold(k.Name, "d")
}

// Source is the state the panel reads and its buttons act on.
type Source interface {
	Snapshot() state.Snapshot
	ClearTracePoints()
}

// Tagger issues commands. The logging button goes through it so the change
// is recorded in the DataLayer like any other.
type Tagger interface {
	Tag(name string, args ...any) int64
}

// Notifier shows a transient message; kind is "info", "ok" or "danger".
type Notifier func(message, kind string, ttl time.Duration)

// Panel is the floating HUD: a closed/open state machine whose elements are
// created on first use.
type Panel struct {
	renderer *Renderer
	source   Source
	tagger   Tagger
	notify   Notifier
	log      func(msg string, args ...any)

	mu       sync.Mutex
	created  bool
	state    PanelState
	sections []*Element
}

// PanelOption configures a Panel.
type PanelOption func(*Panel)

// WithNotifier sets where button feedback goes.
func WithNotifier(n Notifier) PanelOption {
	return func(p *Panel) {
		p.notify = n
	}
}

// WithPanelLog sets the diagnostics log function.
func WithPanelLog(fn func(msg string, args ...any)) PanelOption {
	return func(p *Panel) {
		p.log = fn
	}
}

// NewPanel creates a closed panel. Nothing is added to the document until
// first use.
func NewPanel(r *Renderer, src Source, tagger Tagger, opts ...PanelOption) *Panel {
	p := &Panel{
		renderer: r,
		source:   src,
		tagger:   tagger,
		notify:   func(string, string, time.Duration) {},
		log:      func(string, ...any) {},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// ensure creates the panel's elements. Caller holds p.mu.
func (p *Panel) ensure() {
	if p.created {
		return
	}
	p.sections = []*Element{
		NewElement(PanelStateID, MarkerHUDState),
		NewElement(PanelErrorID, MarkerHUDError),
		NewElement(PanelNetworkID, MarkerHUDNetwork),
	}
	p.renderer.Document().Append(p.sections...)
	p.created = true
}

// Created reports whether the panel exists in the document.
func (p *Panel) Created() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}

// State returns the current panel state.
func (p *Panel) State() PanelState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// IsOpen reports whether the panel is visible.
func (p *Panel) IsOpen() bool {
	return p.State() == PanelOpen
}

// Open shows the panel.
func (p *Panel) Open() bool { return p.transition(PanelOpen) }

// Close hides the panel.
func (p *Panel) Close() bool { return p.transition(PanelClosed) }

// Toggle flips the panel state.
func (p *Panel) Toggle() bool {
	p.mu.Lock()
	next := PanelOpen
	if p.state == PanelOpen {
		next = PanelClosed
	}
	p.mu.Unlock()
	return p.transition(next)
}

// HandleKey toggles the panel on Ctrl+Shift+D. It returns true when the key
// was consumed.
func (p *Panel) HandleKey(k Key) bool {
	if !k.IsToggle() {
		return false
	}
	p.Toggle()
	return true
}

// transition moves to next and runs its enter action. Returns false if
// already in next.
func (p *Panel) transition(next PanelState) bool {
	p.mu.Lock()
	p.ensure()
	if p.state == next {
		p.mu.Unlock()
		return false
	}
	p.state = next
	p.mu.Unlock()

	p.enter(next)
	return true
}

func (p *Panel) enter(s PanelState) {
	if s == PanelOpen {
		p.renderer.Render(p.source.Snapshot())
	}
	p.log("hud:toggle", "open", s == PanelOpen)
}

// Clear empties the trace points.
func (p *Panel) Clear() {
	p.source.ClearTracePoints()
	p.notify("Tracepoints cleared", "ok", 1600*time.Millisecond)
}

// ToggleLogging tags "logging" with the negated flag.
func (p *Panel) ToggleLogging() {
	on := !p.source.Snapshot().Logging
	p.tagger.Tag("logging", on)
	msg := "Logging: off"
	if on {
		msg = "Logging: on"
	}
	p.notify(msg, "info", 1600*time.Millisecond)
}

// Sections returns the panel's section texts in display order. Empty until
// the panel is created.
func (p *Panel) Sections() (stateText, errText, netText string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.created {
		return "", "", ""
	}
	return p.sections[0].Text(), p.sections[1].Text(), p.sections[2].Text()
}
