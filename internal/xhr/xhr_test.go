package xhr

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":"hello"}`))
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// events records which terminal events fired.
type events struct {
	mu  sync.Mutex
	got []Event
}

func (e *events) listen(r *Request) {
	for _, ev := range []Event{EventLoad, EventError, EventTimeout} {
		ev := ev
		r.AddEventListener(ev, func() {
			e.mu.Lock()
			defer e.mu.Unlock()
			e.got = append(e.got, ev)
		})
	}
}

func (e *events) list() []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Event(nil), e.got...)
}

func TestRequest_Load(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.Client())

	r := c.New()
	var ev events
	ev.listen(r)
	r.Open("get", srv.URL+"/ok")
	require.NoError(t, r.Send(context.Background(), nil))
	r.Wait()

	assert.Equal(t, []Event{EventLoad}, ev.list())
	assert.Equal(t, http.StatusOK, r.Status())
	assert.JSONEq(t, `{"message":"hello"}`, string(r.Response()))
	assert.Equal(t, "GET", r.Method())
	assert.NoError(t, r.Err())
}

func TestRequest_LoadOnHTTPError(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.Client())

	r := c.New()
	var ev events
	ev.listen(r)
	r.Open("GET", srv.URL+"/missing")
	require.NoError(t, r.Send(context.Background(), nil))
	r.Wait()

	assert.Equal(t, []Event{EventLoad}, ev.list(), "HTTP errors still complete normally")
	assert.Equal(t, http.StatusNotFound, r.Status())
}

func TestRequest_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	r := NewClient(nil).New()
	var ev events
	ev.listen(r)
	r.Open("GET", url+"/gone")
	require.NoError(t, r.Send(context.Background(), nil))
	r.Wait()

	assert.Equal(t, []Event{EventError}, ev.list())
	assert.Equal(t, 0, r.Status())
	assert.Error(t, r.Err())
}

func TestRequest_Timeout(t *testing.T) {
	srv := newServer(t)
	r := NewClient(srv.Client()).New()
	r.Timeout = 50 * time.Millisecond
	var ev events
	ev.listen(r)
	r.Open("GET", srv.URL+"/slow")
	require.NoError(t, r.Send(context.Background(), nil))

	select {
	case <-r.Done():
	case <-time.After(time.Second):
		t.Fatal("request did not time out")
	}

	assert.Equal(t, []Event{EventTimeout}, ev.list())
}

func TestRequest_SendMisuse(t *testing.T) {
	srv := newServer(t)
	r := NewClient(srv.Client()).New()

	assert.ErrorIs(t, r.Send(context.Background(), nil), ErrNotOpened)

	r.Open("GET", srv.URL+"/ok")
	require.NoError(t, r.Send(context.Background(), nil))
	assert.ErrorIs(t, r.Send(context.Background(), nil), ErrAlreadySent)
	r.Wait()
}

type orderHook struct {
	name string
	log  *[]string
}

func (h orderHook) Open(_ *Request, method, url string) {
	*h.log = append(*h.log, h.name+":open:"+method)
}

func (h orderHook) Send(_ *Request) {
	*h.log = append(*h.log, h.name+":send")
}

func TestClient_HooksComposeInOrder(t *testing.T) {
	srv := newServer(t)
	c := NewClient(srv.Client())

	var log []string
	c.Use(orderHook{name: "a", log: &log})
	c.Use(orderHook{name: "b", log: &log})
	assert.Len(t, c.Hooks(), 2)

	r := c.New()
	r.Open("POST", srv.URL+"/ok")
	require.NoError(t, r.Send(context.Background(), nil))
	r.Wait()

	assert.Equal(t, []string{"a:open:POST", "b:open:POST", "a:send", "b:send"}, log)
}

func TestRequest_Values(t *testing.T) {
	r := NewClient(nil).New()
	type key struct{}

	assert.Nil(t, r.Value(key{}))
	r.SetValue(key{}, "meta")
	assert.Equal(t, "meta", r.Value(key{}))
}
