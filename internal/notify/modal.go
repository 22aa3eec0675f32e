package notify

import (
	"fmt"
	"html"
	"strings"
	"sync"

	"github.com/roach88/cprum/internal/hud"
	"github.com/roach88/cprum/internal/ir"
)

// ModalState is the visibility of the dialog.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalOpen
)

// CloseButtonID is the first focusable of every dialog.
const CloseButtonID = "modal-close"

// ModalOptions describe a dialog. Body and Footer are trusted HTML; the
// title is escaped.
type ModalOptions struct {
	Title  string
	Body   string
	Footer string
	// Focusables are the IDs of focusable controls inside the body and
	// footer, in tab order.
	Focusables []string
	// ReturnFocus is the ID of whatever had focus before opening.
	ReturnFocus string
}

// Modal is a single focus-trapped dialog.
type Modal struct {
	log func(msg string, args ...any)

	mu         sync.Mutex
	state      ModalState
	title      string
	body       string
	footer     string
	focusables []string
	focusIdx   int
	restore    string
	focused    string
}

// NewModal creates a closed dialog. log may be nil.
func NewModal(log func(msg string, args ...any)) *Modal {
	if log == nil {
		log = func(string, ...any) {}
	}
	return &Modal{log: log}
}

// Open shows a dialog, replacing any dialog already open. Focus moves to the
// first focusable control.
func (m *Modal) Open(opts ModalOptions) {
	m.mu.Lock()
	wasOpen := m.state == ModalOpen
	m.mu.Unlock()
	if wasOpen {
		m.Close()
	}

	title := opts.Title
	if title == "" {
		title = "Dialog"
	}
	title = ir.Sanitize(title)

	m.mu.Lock()
	m.state = ModalOpen
	m.title = title
	m.body = opts.Body
	m.footer = opts.Footer
	m.focusables = append([]string{CloseButtonID}, opts.Focusables...)
	m.focusIdx = 0
	m.restore = opts.ReturnFocus
	m.focused = m.focusables[0]
	m.mu.Unlock()

	m.log("modal:open", "title", title)
}

// Close hides the dialog and restores focus. Returns false if no dialog was
// open.
func (m *Modal) Close() bool {
	m.mu.Lock()
	if m.state != ModalOpen {
		m.mu.Unlock()
		return false
	}
	m.state = ModalClosed
	m.focused = m.restore
	m.focusables = nil
	m.mu.Unlock()

	m.log("modal:close")
	return true
}

// HandleKey applies a key press to an open dialog: Escape closes, Tab and
// Shift+Tab cycle focus without leaving the dialog. Returns true when the key
// was consumed.
func (m *Modal) HandleKey(k hud.Key) bool {
	switch k.Name {
	case "Escape":
		return m.Close()
	case "Tab":
	default:
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ModalOpen {
		return false
	}
	n := len(m.focusables)
	if k.Shift {
		m.focusIdx = (m.focusIdx - 1 + n) % n
	} else {
		m.focusIdx = (m.focusIdx + 1) % n
	}
	m.focused = m.focusables[m.focusIdx]
	return true
}

// State returns the dialog state.
func (m *Modal) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsOpen reports whether a dialog is shown.
func (m *Modal) IsOpen() bool {
	return m.State() == ModalOpen
}

// Title returns the sanitized title of the open dialog.
func (m *Modal) Title() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title
}

// Focused returns the ID of the control holding focus.
func (m *Modal) Focused() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// HTML returns the markup of the open dialog, or "" when closed.
func (m *Modal) HTML() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != ModalOpen {
		return ""
	}

	title := html.EscapeString(m.title)
	var b strings.Builder
	b.WriteString(`<div class="modal-overlay" role="presentation">` + "\n")
	fmt.Fprintf(&b, `  <div class="modal" role="dialog" aria-modal="true" aria-label="%s">`+"\n", title)
	b.WriteString(`    <div class="modal-header">` + "\n")
	fmt.Fprintf(&b, `      <h3 class="modal-title">%s</h3>`+"\n", title)
	fmt.Fprintf(&b, `      <button class="%s" type="button" aria-label="Close dialog">✕</button>`+"\n", CloseButtonID)
	b.WriteString(`    </div>` + "\n")
	fmt.Fprintf(&b, `    <div class="modal-body">%s</div>`+"\n", m.body)
	if m.footer != "" {
		fmt.Fprintf(&b, `    <div class="modal-footer">%s</div>`+"\n", m.footer)
	}
	b.WriteString(`  </div>` + "\n")
	b.WriteString(`</div>`)
	return b.String()
}
