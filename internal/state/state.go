package state

import (
	"log/slog"
	"maps"
	"sync"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/store"
)

// Theme modes.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Snapshot is an immutable copy of the state at one point in time.
type Snapshot struct {
	Logging     bool             `json:"logging"`
	PageGroup   string           `json:"pageGroup"`
	TracePoints map[string]any   `json:"tracepoints"`
	Theme       string           `json:"theme"`
	LastError   *ir.ErrorEvent   `json:"lastError"`
	LastNetwork *ir.NetworkEvent `json:"lastNetwork"`
	Ready       bool             `json:"ready"`
	SessionID   string           `json:"sessionId"`
}

// Listener is notified synchronously after every mutation.
type Listener func(Snapshot)

// State is the process-wide observability state.
// Construct one per process image; tests build as many as they need.
type State struct {
	kv     *store.KV
	logger *slog.Logger

	// notifyMu serializes mutate+persist+notify so listeners observe
	// mutations in the order they were applied.
	notifyMu sync.Mutex

	mu          sync.RWMutex
	logging     bool
	tracePoints map[string]any
	pageGroup   string
	theme       string
	lastError   *ir.ErrorEvent
	lastNetwork *ir.NetworkEvent
	ready       bool
	sessionID   string

	lmu       sync.RWMutex
	listeners []Listener
}

// Option configures a State.
type Option func(*stateConfig)

type stateConfig struct {
	sessions SessionGenerator
	base     *slog.Logger
}

// WithSessionGenerator overrides the UUIDv7 session generator.
func WithSessionGenerator(g SessionGenerator) Option {
	return func(c *stateConfig) {
		c.sessions = g
	}
}

// WithBaseLogger sets the logger the gated diagnostics logger writes to.
func WithBaseLogger(l *slog.Logger) Option {
	return func(c *stateConfig) {
		c.base = l
	}
}

// New creates a State and restores persisted fields from kv.
func New(kv *store.KV, opts ...Option) *State {
	cfg := stateConfig{
		sessions: UUIDv7Generator{},
		base:     slog.Default(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &State{
		kv:          kv,
		tracePoints: make(map[string]any),
		sessionID:   cfg.sessions.Generate(),
	}
	s.logger = s.Logger(cfg.base)
	s.restore()
	return s
}

// restore loads persisted fields. Missing or unreadable values fall back to
// defaults.
func (s *State) restore() {
	s.logging = s.kv.Get(store.KeyLogging, "0") == "1"

	tp := make(map[string]any)
	if s.kv.GetJSON(store.KeyTracePoints, &tp) && tp != nil {
		s.tracePoints = tp
	}

	s.pageGroup = s.kv.Get(store.KeyPageGroup, "")
	s.theme = s.kv.Get(store.KeyTheme, ThemeSystem)
}

// Subscribe registers fn for synchronous notification.
func (s *State) Subscribe(fn Listener) {
	s.lmu.Lock()
	defer s.lmu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// mutate applies fn under the state lock, then persists and notifies.
// fn returns false to signal a no-op (nothing persisted, nobody notified).
func (s *State) mutate(fn func() bool, persist func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	changed := fn()
	s.mu.Unlock()
	if !changed {
		return
	}

	if persist != nil {
		persist()
	}
	s.notify(s.Snapshot())
}

func (s *State) notify(snap Snapshot) {
	s.lmu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.lmu.RUnlock()

	for _, l := range listeners {
		l(snap)
	}
}

// SetLogging sets the diagnostics flag and persists "1"/"0".
func (s *State) SetLogging(on bool) {
	s.mutate(func() bool {
		s.logging = on
		return true
	}, func() {
		v := "0"
		if on {
			v = "1"
		}
		s.kv.Set(store.KeyLogging, v)
	})
	s.logger.Info("logging", "on", on)
}

// SetTracePoint sets tracePoints[key] = value and persists the whole map.
// Keys are used as given; the tag handler trims them.
//
// Values are stored in their JSON-safe form (see ir.JSONSafe) so that one
// unencodable value cannot stall persistence of the map. A value that JSON
// drops entirely, such as a func, removes the key.
func (s *State) SetTracePoint(key string, value any) {
	safe, keep := ir.JSONSafe(value)
	var persisted map[string]any
	s.mutate(func() bool {
		if keep {
			s.tracePoints[key] = safe
		} else {
			delete(s.tracePoints, key)
		}
		persisted = maps.Clone(s.tracePoints)
		return true
	}, func() {
		s.kv.SetJSON(store.KeyTracePoints, persisted)
	})
	s.logger.Info("tracepoint", "key", key, "value", safe)
}

// ClearTracePoints removes every trace point.
func (s *State) ClearTracePoints() {
	s.mutate(func() bool {
		s.tracePoints = make(map[string]any)
		return true
	}, func() {
		s.kv.SetJSON(store.KeyTracePoints, map[string]any{})
	})
	s.logger.Info("tracepoints cleared")
}

// SetPageGroup sets the page group label.
func (s *State) SetPageGroup(group string) {
	s.mutate(func() bool {
		s.pageGroup = group
		return true
	}, func() {
		s.kv.Set(store.KeyPageGroup, group)
	})
	s.logger.Info("pageGroup", "value", group)
}

// SetTheme stores the theme mode (light, dark or system).
func (s *State) SetTheme(mode string) {
	s.mutate(func() bool {
		s.theme = mode
		return true
	}, func() {
		s.kv.Set(store.KeyTheme, mode)
	})
}

// RecordError replaces the last captured error. Strings are sanitized again
// here so no caller can store raw control characters.
func (s *State) RecordError(ev ir.ErrorEvent) {
	ev.Message = ir.Sanitize(ev.Message)
	ev.Filename = ir.Sanitize(ev.Filename)
	ev.Stack = ir.Sanitize(ev.Stack)
	s.mutate(func() bool {
		s.lastError = &ev
		return true
	}, nil)
}

// RecordNetwork replaces the last network event (last settle wins).
func (s *State) RecordNetwork(ev ir.NetworkEvent) {
	ev.URL = ir.Sanitize(ev.URL)
	if ev.Error != nil {
		ev.Error = ir.StringPtr(*ev.Error)
	}
	s.mutate(func() bool {
		s.lastNetwork = &ev
		return true
	}, nil)
}

// ClearLast forgets the last error and last network event.
func (s *State) ClearLast() {
	s.mutate(func() bool {
		s.lastError = nil
		s.lastNetwork = nil
		return true
	}, nil)
}

// MarkReady flips ready to true exactly once.
// Returns false if the state was already ready.
func (s *State) MarkReady() bool {
	first := false
	s.mutate(func() bool {
		if s.ready {
			return false
		}
		s.ready = true
		first = true
		return true
	}, nil)
	return first
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Logging:     s.logging,
		PageGroup:   s.pageGroup,
		TracePoints: maps.Clone(s.tracePoints),
		Theme:       s.theme,
		Ready:       s.ready,
		SessionID:   s.sessionID,
	}
	if s.lastError != nil {
		ev := *s.lastError
		snap.LastError = &ev
	}
	if s.lastNetwork != nil {
		ev := *s.lastNetwork
		snap.LastNetwork = &ev
	}
	return snap
}

// Logging reports whether diagnostics are enabled.
func (s *State) Logging() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.logging
}

// LastError returns a copy of the last captured error, or nil.
func (s *State) LastError() *ir.ErrorEvent {
	return s.Snapshot().LastError
}

// LastNetwork returns a copy of the last network event, or nil.
func (s *State) LastNetwork() *ir.NetworkEvent {
	return s.Snapshot().LastNetwork
}

// Ready reports whether boot has completed.
func (s *State) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

// SessionID returns the identity of this process image.
func (s *State) SessionID() string {
	return s.sessionID
}

// Log emits a diagnostic record when logging is enabled.
func (s *State) Log(msg string, args ...any) {
	s.logger.Info(msg, args...)
}

// ResolveTheme maps a theme mode to the concrete theme shown: dark for
// "dark", or for "system" when the environment prefers dark; light otherwise.
func ResolveTheme(mode string, prefersDark bool) string {
	if mode == ThemeDark || (mode == ThemeSystem && prefersDark) {
		return ThemeDark
	}
	return ThemeLight
}
