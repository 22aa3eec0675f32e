// Package xhr provides a callback-style request object.
//
// A Request is opened, then sent; the outcome is delivered to listeners as
// exactly one terminal event: load (any HTTP response, whatever the status),
// error (transport failure) or timeout. Hooks registered on the Client see
// every Open and Send, which is how instrumentation attaches without
// replacing the request implementation.
package xhr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Event names a terminal request outcome.
type Event string

const (
	EventLoad    Event = "load"
	EventError   Event = "error"
	EventTimeout Event = "timeout"
)

// Hook observes request lifecycles. Hooks run in registration order on the
// caller's goroutine, before the request does its own work.
type Hook interface {
	Open(r *Request, method, url string)
	Send(r *Request)
}

var (
	// ErrNotOpened is returned by Send before Open.
	ErrNotOpened = errors.New("xhr: request not opened")
	// ErrAlreadySent is returned by a second Send.
	ErrAlreadySent = errors.New("xhr: request already sent")
)

// Client creates requests sharing an http.Client and a hook chain.
type Client struct {
	http *http.Client

	mu    sync.RWMutex
	hooks []Hook
}

// NewClient creates a Client. A nil hc uses http.DefaultClient.
func NewClient(hc *http.Client) *Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &Client{http: hc}
}

// Use appends h to the hook chain.
func (c *Client) Use(h Hook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, h)
}

// Hooks returns a copy of the hook chain.
func (c *Client) Hooks() []Hook {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Hook, len(c.hooks))
	copy(out, c.hooks)
	return out
}

// New creates an unopened request.
func (c *Client) New() *Request {
	return &Request{
		client:    c,
		listeners: make(map[Event][]func()),
		values:    make(map[any]any),
		done:      make(chan struct{}),
	}
}

// Request is a single callback-style request.
// Method and URL may change until Send; after Send they are fixed for the
// in-flight request.
type Request struct {
	client *Client

	// Timeout bounds the whole request when positive. Set before Send.
	Timeout time.Duration

	mu        sync.Mutex
	method    string
	url       string
	opened    bool
	sent      bool
	status    int
	response  []byte
	err       error
	listeners map[Event][]func()
	values    map[any]any
	done      chan struct{}
}

// Open sets the method and URL.
func (r *Request) Open(method, url string) {
	for _, h := range r.client.Hooks() {
		h.Open(r, method, url)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.method = strings.ToUpper(method)
	if r.method == "" {
		r.method = http.MethodGet
	}
	r.url = url
	r.opened = true
}

// AddEventListener registers fn for ev. Listeners run on the request's
// goroutine in registration order.
func (r *Request) AddEventListener(ev Event, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners[ev] = append(r.listeners[ev], fn)
}

// SetValue attaches per-request data for hooks.
func (r *Request) SetValue(key, value any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

// Value returns data attached with SetValue.
func (r *Request) Value(key any) any {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.values[key]
}

// Method returns the current method.
func (r *Request) Method() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.method
}

// URL returns the current URL.
func (r *Request) URL() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.url
}

// Status returns the HTTP status, or 0 before a response arrived.
func (r *Request) Status() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Response returns the response body.
func (r *Request) Response() []byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.response
}

// Err returns the transport error behind an error or timeout event.
func (r *Request) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Send starts the request asynchronously. The returned error only reports
// misuse; request failures are delivered as events.
func (r *Request) Send(ctx context.Context, body io.Reader) error {
	r.mu.Lock()
	if !r.opened {
		r.mu.Unlock()
		return ErrNotOpened
	}
	if r.sent {
		r.mu.Unlock()
		return ErrAlreadySent
	}
	r.sent = true
	method, url, timeout := r.method, r.url, r.Timeout
	r.mu.Unlock()

	for _, h := range r.client.Hooks() {
		h.Send(r)
	}

	go r.run(ctx, method, url, timeout, body)
	return nil
}

// Wait blocks until the terminal event's listeners have run.
func (r *Request) Wait() {
	<-r.done
}

// Done is closed after the terminal event's listeners have run.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

func (r *Request) run(ctx context.Context, method, url string, timeout time.Duration, body io.Reader) {
	defer close(r.done)

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		r.finish(EventError, 0, nil, fmt.Errorf("build request: %w", err))
		return
	}

	resp, err := r.client.http.Do(req)
	if err != nil {
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.finish(EventTimeout, 0, nil, err)
			return
		}
		r.finish(EventError, 0, nil, err)
		return
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		if timeout > 0 && errors.Is(ctx.Err(), context.DeadlineExceeded) {
			r.finish(EventTimeout, resp.StatusCode, nil, err)
			return
		}
		r.finish(EventError, resp.StatusCode, nil, err)
		return
	}
	r.finish(EventLoad, resp.StatusCode, data, nil)
}

func (r *Request) finish(ev Event, status int, data []byte, err error) {
	r.mu.Lock()
	r.status = status
	r.response = data
	r.err = err
	listeners := make([]func(), len(r.listeners[ev]))
	copy(listeners, r.listeners[ev])
	r.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}
