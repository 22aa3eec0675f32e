package capture

import (
	"sync"
	"testing"
	"time"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/testutil"
)

// recorder collects events in arrival order.
type recorder struct {
	mu   sync.Mutex
	errs []ir.ErrorEvent
	nets []ir.NetworkEvent
}

func (r *recorder) RecordError(ev ir.ErrorEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errs = append(r.errs, ev)
}

func (r *recorder) RecordNetwork(ev ir.NetworkEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nets = append(r.nets, ev)
}

func (r *recorder) errors() []ir.ErrorEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.ErrorEvent(nil), r.errs...)
}

func (r *recorder) networks() []ir.NetworkEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]ir.NetworkEvent(nil), r.nets...)
}

// newTestInterceptor returns an interceptor whose clock advances 10ms per
// reading, so every measured duration is exactly 10ms.
func newTestInterceptor(t *testing.T) (*Interceptor, *recorder) {
	t.Helper()
	rec := &recorder{}
	clock := testutil.NewFakeClock(time.Time{})
	return New(rec, WithClock(clock.Stepper(10*time.Millisecond))), rec
}
