package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/timers"
)

// Kind selects a toast's styling and default title.
type Kind string

const (
	KindInfo   Kind = "info"
	KindOK     Kind = "ok"
	KindDanger Kind = "danger"
)

// Toast lifetimes.
const (
	DefaultTTL = 3200 * time.Millisecond
	MinTTL     = 800 * time.Millisecond
	MaxTTL     = 15 * time.Second
)

// DefaultTitle returns the title used when a toast has none.
func DefaultTitle(kind Kind) string {
	switch kind {
	case KindDanger:
		return "Heads up"
	case KindOK:
		return "Nice"
	default:
		return "Note"
	}
}

// ClampTTL applies the default for zero and bounds the rest.
func ClampTTL(ttl time.Duration) time.Duration {
	switch {
	case ttl == 0:
		return DefaultTTL
	case ttl < MinTTL:
		return MinTTL
	case ttl > MaxTTL:
		return MaxTTL
	default:
		return ttl
	}
}

// ToastOptions are the optional toast fields.
type ToastOptions struct {
	Title string
	TTL   time.Duration
}

// Toast is one shown notification.
type Toast struct {
	ID      string        `json:"id"`
	Kind    Kind          `json:"kind"`
	Title   string        `json:"title"`
	Message string        `json:"message"`
	TTL     time.Duration `json:"ttl"`
}

// Toaster keeps the stack of visible toasts and removes each when its TTL
// expires.
type Toaster struct {
	timers *timers.Group
	ids    func() string
	log    func(msg string, args ...any)
	onShow func(Toast)

	mu     sync.Mutex
	toasts []Toast
}

// ToasterOption configures a Toaster.
type ToasterOption func(*Toaster)

// WithTimers schedules removals on g instead of a private group.
func WithTimers(g *timers.Group) ToasterOption {
	return func(t *Toaster) {
		t.timers = g
	}
}

// WithIDGenerator overrides the UUID toast IDs.
func WithIDGenerator(fn func() string) ToasterOption {
	return func(t *Toaster) {
		t.ids = fn
	}
}

// WithToastLog sets the diagnostics log function.
func WithToastLog(fn func(msg string, args ...any)) ToasterOption {
	return func(t *Toaster) {
		t.log = fn
	}
}

// WithShowHook is called for every toast as it is shown.
func WithShowHook(fn func(Toast)) ToasterOption {
	return func(t *Toaster) {
		t.onShow = fn
	}
}

// NewToaster creates an empty Toaster.
func NewToaster(opts ...ToasterOption) *Toaster {
	t := &Toaster{
		timers: timers.NewGroup(),
		ids:    uuid.NewString,
		log:    func(string, ...any) {},
		onShow: func(Toast) {},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Toast shows message and schedules its removal.
func (t *Toaster) Toast(message string, kind Kind, opts ToastOptions) Toast {
	if kind == "" {
		kind = KindInfo
	}
	title := opts.Title
	if title == "" {
		title = DefaultTitle(kind)
	}
	toast := Toast{
		ID:      t.ids(),
		Kind:    kind,
		Title:   ir.Sanitize(title),
		Message: ir.Sanitize(message),
		TTL:     ClampTTL(opts.TTL),
	}

	t.mu.Lock()
	t.toasts = append(t.toasts, toast)
	t.mu.Unlock()

	t.timers.After(toast.TTL, func() { t.Dismiss(toast.ID) })
	t.onShow(toast)
	t.log("toast", "type", kind, "message", toast.Message)
	return toast
}

// Dismiss removes the toast with id. Returns false if it is not visible.
func (t *Toaster) Dismiss(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, toast := range t.toasts {
		if toast.ID == id {
			t.toasts = append(t.toasts[:i], t.toasts[i+1:]...)
			return true
		}
	}
	return false
}

// Active returns the visible toasts, oldest first.
func (t *Toaster) Active() []Toast {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Toast, len(t.toasts))
	copy(out, t.toasts)
	return out
}

// Stop cancels pending removals. Visible toasts stay visible.
func (t *Toaster) Stop() {
	t.timers.StopAll()
}
