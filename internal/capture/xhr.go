package capture

import (
	"sync"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/xhr"
)

const (
	xhrErrorMessage   = "XHR error"
	xhrTimeoutMessage = "XHR timeout"
)

type metaKey struct{}

// requestMeta is the method and URL as given to Open.
type requestMeta struct {
	method string
	url    string
}

type xhrHook struct {
	owner *Interceptor
}

// InstallXHR registers the request hook on c. It returns false when this
// Interceptor already hooked c.
func (i *Interceptor) InstallXHR(c *xhr.Client) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.hooked[c]; ok {
		return false
	}
	c.Use(xhrHook{owner: i})
	i.hooked[c] = struct{}{}
	return true
}

func (h xhrHook) Open(r *xhr.Request, method, url string) {
	r.SetValue(metaKey{}, requestMeta{method: normalizeMethod(method), url: url})
}

// Send freezes the metadata captured at Open and starts the clock. Exactly
// one of the three terminal listeners records.
func (h xhrHook) Send(r *xhr.Request) {
	meta, _ := r.Value(metaKey{}).(requestMeta)
	start := h.owner.now()

	var once sync.Once
	settle := func(status int, ok bool, errMsg *string) {
		once.Do(func() {
			end := h.owner.now()
			h.owner.recordNetwork(ir.NetworkEvent{
				Kind:       ir.NetworkKindXHR,
				Method:     meta.method,
				URL:        ir.Sanitize(meta.url),
				Status:     status,
				OK:         ok,
				DurationMs: ir.Millis(end.Sub(start)),
				Error:      errMsg,
				Timestamp:  ir.Timestamp(end),
			})
		})
	}

	r.AddEventListener(xhr.EventLoad, func() {
		status := r.Status()
		settle(status, status >= 200 && status < 400, nil)
	})
	r.AddEventListener(xhr.EventError, func() {
		settle(0, false, ir.StringPtr(xhrErrorMessage))
	})
	r.AddEventListener(xhr.EventTimeout, func() {
		settle(0, false, ir.StringPtr(xhrTimeoutMessage))
	})
}
