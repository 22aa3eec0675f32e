package hud

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/state"
)

// Renderer projects a state snapshot onto every marked element of a
// Document. Render replaces full text content; calling it twice with the
// same snapshot leaves the document unchanged.
type Renderer struct {
	doc         *Document
	prefersDark bool
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithPrefersDark makes the "system" theme resolve to dark.
func WithPrefersDark(dark bool) RendererOption {
	return func(r *Renderer) {
		r.prefersDark = dark
	}
}

// NewRenderer creates a Renderer over doc.
func NewRenderer(doc *Document, opts ...RendererOption) *Renderer {
	r := &Renderer{doc: doc}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Document returns the rendered document.
func (r *Renderer) Document() *Document {
	return r.doc
}

// Render updates every marked element from s. Markers with no elements are
// skipped.
func (r *Renderer) Render(s state.Snapshot) {
	for _, sec := range r.sections(s) {
		for _, el := range r.doc.QueryAll(sec.marker) {
			el.SetText(sec.text)
		}
	}
}

type section struct {
	marker Marker
	text   string
}

// sections computes the text of every marker for s.
func (r *Renderer) sections(s state.Snapshot) []section {
	errText := ErrorText(s.LastError)
	netText := NetworkText(s.LastNetwork)
	return []section{
		{MarkerHUDState, r.StateText(s)},
		{MarkerHUDError, errText},
		{MarkerHUDNetwork, netText},
		{MarkerLastError, errText},
		{MarkerLastNetwork, netText},
		{MarkerLogging, LoggingText(s.Logging)},
		{MarkerPageGroup, PageGroupText(s.PageGroup)},
		{MarkerTracePoints, TracePointsText(s.TracePoints)},
	}
}

// stateView is the panel's state section.
type stateView struct {
	Logging     bool           `json:"logging"`
	PageGroup   string         `json:"pageGroup"`
	TracePoints map[string]any `json:"tracepoints"`
	Theme       string         `json:"theme"`
}

// networkView is a NetworkEvent with the duration formatted for display.
type networkView struct {
	Kind      ir.NetworkKind `json:"kind"`
	Method    string         `json:"method"`
	URL       string         `json:"url"`
	Status    int            `json:"status"`
	OK        bool           `json:"ok"`
	Duration  string         `json:"duration"`
	Error     *string        `json:"error"`
	Timestamp string         `json:"timestamp"`
}

// StateText renders the panel's state section.
func (r *Renderer) StateText(s state.Snapshot) string {
	tp := s.TracePoints
	if tp == nil {
		tp = map[string]any{}
	}
	return encode(stateView{
		Logging:     s.Logging,
		PageGroup:   s.PageGroup,
		TracePoints: tp,
		Theme:       state.ResolveTheme(s.Theme, r.prefersDark),
	})
}

// ErrorText renders ev as indented JSON, or the placeholder.
func ErrorText(ev *ir.ErrorEvent) string {
	if ev == nil {
		return Placeholder
	}
	return encode(ev)
}

// NetworkText renders ev as indented JSON with a formatted duration, or the
// placeholder.
func NetworkText(ev *ir.NetworkEvent) string {
	if ev == nil {
		return Placeholder
	}
	return encode(networkView{
		Kind:      ev.Kind,
		Method:    ev.Method,
		URL:       ev.URL,
		Status:    ev.Status,
		OK:        ev.OK,
		Duration:  FormatDuration(ev.DurationMs),
		Error:     ev.Error,
		Timestamp: ev.Timestamp,
	})
}

// LoggingText renders the logging flag.
func LoggingText(on bool) string {
	if on {
		return "true"
	}
	return "false"
}

// PageGroupText renders the page group, or the placeholder when empty.
func PageGroupText(group string) string {
	if group == "" {
		return Placeholder
	}
	return group
}

// TracePointsText renders one "key: value" line per trace point, sorted by
// key, or the placeholder when there are none.
func TracePointsText(tp map[string]any) string {
	if len(tp) == 0 {
		return Placeholder
	}
	keys := make([]string, 0, len(tp))
	for k := range tp {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	lines := make([]string, len(keys))
	for i, k := range keys {
		lines[i] = k + ": " + ir.SanitizeValue(tp[k])
	}
	return strings.Join(lines, "\n")
}

// encode marshals v with two-space indentation and no HTML escaping.
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return Placeholder
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
