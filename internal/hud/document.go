package hud

import "sync"

// Marker is an attribute an element carries to opt into live updates.
type Marker string

// Inline markers, usable on any element.
const (
	MarkerLastError   Marker = "data-last-error"
	MarkerLastNetwork Marker = "data-last-network"
	MarkerLogging     Marker = "data-debug-logging"
	MarkerPageGroup   Marker = "data-debug-pagegroup"
	MarkerTracePoints Marker = "data-debug-tracepoints"
)

// Panel markers, carried by the HUD panel's own sections.
const (
	MarkerHUDState   Marker = "data-hud-state"
	MarkerHUDError   Marker = "data-hud-error"
	MarkerHUDNetwork Marker = "data-hud-network"
)

// Element is a text surface tagged with markers.
type Element struct {
	id      string
	markers map[Marker]struct{}

	mu   sync.RWMutex
	text string
}

// NewElement creates an element with the given markers.
func NewElement(id string, markers ...Marker) *Element {
	e := &Element{id: id, markers: make(map[Marker]struct{}, len(markers))}
	for _, m := range markers {
		e.markers[m] = struct{}{}
	}
	return e
}

// ID returns the element identifier.
func (e *Element) ID() string { return e.id }

// Has reports whether e carries m.
func (e *Element) Has(m Marker) bool {
	_, ok := e.markers[m]
	return ok
}

// Text returns the current text content.
func (e *Element) Text() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.text
}

// SetText replaces the whole text content.
func (e *Element) SetText(s string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.text = s
}

// Document is the set of elements a Renderer scans.
type Document struct {
	mu       sync.RWMutex
	elements []*Element
}

// NewDocument creates a document holding elements.
func NewDocument(elements ...*Element) *Document {
	return &Document{elements: elements}
}

// Append adds elements to the document.
func (d *Document) Append(elements ...*Element) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.elements = append(d.elements, elements...)
}

// Remove drops the element with the given id. Returns false if absent.
func (d *Document) Remove(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i, e := range d.elements {
		if e.id == id {
			d.elements = append(d.elements[:i], d.elements[i+1:]...)
			return true
		}
	}
	return false
}

// Get returns the element with the given id.
func (d *Document) Get(id string) (*Element, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, e := range d.elements {
		if e.id == id {
			return e, true
		}
	}
	return nil, false
}

// QueryAll returns every element carrying m, in document order.
func (d *Document) QueryAll(m Marker) []*Element {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*Element
	for _, e := range d.elements {
		if e.Has(m) {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of elements.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.elements)
}
