package capture

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/cprum/internal/ir"
	"github.com/roach88/cprum/internal/xhr"
)

// DefaultTaskLimit bounds concurrently running detached tasks.
const DefaultTaskLimit = 64

// Recorder receives normalized events. *state.State implements it.
type Recorder interface {
	RecordError(ev ir.ErrorEvent)
	RecordNetwork(ev ir.NetworkEvent)
}

// Interceptor owns every capture point for one Recorder.
type Interceptor struct {
	rec    Recorder
	now    func() time.Time
	logger *slog.Logger

	tasks *errgroup.Group

	mu      sync.Mutex
	fetched map[*http.Client]struct{}
	hooked  map[*xhr.Client]struct{}
}

// Option configures an Interceptor.
type Option func(*Interceptor)

// WithClock overrides time.Now for durations and timestamps.
func WithClock(now func() time.Time) Option {
	return func(i *Interceptor) {
		i.now = now
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interceptor) {
		i.logger = l
	}
}

// WithTaskLimit bounds concurrently running detached tasks. Go blocks while
// the limit is reached. n <= 0 removes the bound.
func WithTaskLimit(n int) Option {
	return func(i *Interceptor) {
		i.tasks.SetLimit(n)
	}
}

// New creates an Interceptor reporting to rec.
func New(rec Recorder, opts ...Option) *Interceptor {
	i := &Interceptor{
		rec:     rec,
		now:     time.Now,
		logger:  slog.Default(),
		tasks:   new(errgroup.Group),
		fetched: make(map[*http.Client]struct{}),
		hooked:  make(map[*xhr.Client]struct{}),
	}
	i.tasks.SetLimit(DefaultTaskLimit)
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Interceptor) recordError(ev ir.ErrorEvent) {
	ev.Message = ir.Sanitize(ev.Message)
	ev.Filename = ir.Sanitize(ev.Filename)
	ev.Stack = ir.Sanitize(ev.Stack)
	ev.Timestamp = ir.Timestamp(i.now())
	i.logger.Debug("captured error", "kind", ev.Kind, "message", ev.Message)
	i.rec.RecordError(ev)
}

func (i *Interceptor) recordNetwork(ev ir.NetworkEvent) {
	i.logger.Debug("captured request",
		"kind", ev.Kind,
		"method", ev.Method,
		"url", ev.URL,
		"status", ev.Status,
	)
	i.rec.RecordNetwork(ev)
}
