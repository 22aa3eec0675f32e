package capture

import (
	"net/http"
	"strings"

	"github.com/roach88/cprum/internal/ir"
)

// roundTripper records one NetworkEvent per round trip.
type roundTripper struct {
	owner *Interceptor
	next  http.RoundTripper
}

// Fetch decorates next. Method and URL are read before the round trip;
// the response or error from next is returned unchanged.
func (i *Interceptor) Fetch(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &roundTripper{owner: i, next: next}
}

// InstallFetch wraps c's transport. It returns false, leaving c untouched,
// when c is already wrapped by this Interceptor.
func (i *Interceptor) InstallFetch(c *http.Client) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.fetched[c]; ok {
		return false
	}
	if rt, ok := c.Transport.(*roundTripper); ok && rt.owner == i {
		return false
	}
	c.Transport = i.Fetch(c.Transport)
	i.fetched[c] = struct{}{}
	return true
}

func (rt *roundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	method := normalizeMethod(req.Method)
	url := req.URL.String()
	start := rt.owner.now()

	resp, err := rt.next.RoundTrip(req)

	end := rt.owner.now()
	ev := ir.NetworkEvent{
		Kind:       ir.NetworkKindFetch,
		Method:     method,
		URL:        ir.Sanitize(url),
		DurationMs: ir.Millis(end.Sub(start)),
		Timestamp:  ir.Timestamp(end),
	}
	if err != nil {
		ev.Error = ir.StringPtr(err.Error())
		rt.owner.recordNetwork(ev)
		return nil, err
	}
	ev.Status = resp.StatusCode
	ev.OK = resp.StatusCode >= 200 && resp.StatusCode < 300
	rt.owner.recordNetwork(ev)
	return resp, nil
}

func normalizeMethod(m string) string {
	m = strings.ToUpper(strings.TrimSpace(m))
	if m == "" {
		return http.MethodGet
	}
	return m
}
