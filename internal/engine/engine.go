package engine

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/roach88/cprum/internal/ir"
)

// Handler executes one command. Returning an error (or panicking) is
// reported as a DispatchError and never stops the drain.
type Handler func(cmd ir.Command) error

// Engine is the DataLayer processor.
//
// Thread-safety model:
//   - Tag(), Process(), Handle(): safe from any goroutine
//   - at most one goroutine dispatches at a time (the drainer)
//   - handlers run on the drainer's goroutine, in DataLayer order
//
// INVARIANTS:
//   - cursor never decreases
//   - every entry below cursor has been dispatched exactly once
type Engine struct {
	layer *DataLayer

	mu       sync.RWMutex
	handlers map[string]Handler

	drain  sync.Mutex
	cursor atomic.Int64

	logger   *slog.Logger
	onError  func(*DispatchError)
	failures atomic.Int64
	maxSteps int
}

// Option allows configuration of engine parameters.
type Option func(*Engine)

// WithLogger sets the diagnostics logger. Dispatch failures and unknown
// commands are reported here; pass a gated logger to emit them only while
// diagnostics are enabled.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithErrorHook registers a callback invoked for every DispatchError, after
// it has been logged. The hook runs on the drainer's goroutine.
func WithErrorHook(fn func(*DispatchError)) Option {
	return func(e *Engine) {
		e.onError = fn
	}
}

// WithMaxSteps bounds the dispatches of one drain pass. n <= 0 removes the
// bound.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New creates an Engine that drains layer. A nil layer starts empty.
//
// The cursor starts at 0: entries already present in layer are dispatched
// by the first Process() call.
func New(layer *DataLayer, opts ...Option) *Engine {
	if layer == nil {
		layer = NewDataLayer()
	}

	e := &Engine{
		layer:    layer,
		handlers: make(map[string]Handler),
		logger:   slog.Default(),
		maxSteps: DefaultMaxSteps,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Layer returns the adopted DataLayer.
func (e *Engine) Layer() *DataLayer {
	return e.layer
}

// Handle registers h for commands named name, replacing any previous handler.
func (e *Engine) Handle(name string, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[name] = h
}

func (e *Engine) handler(name string) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[name]
	return h, ok
}

// Tag appends (name, args) to the DataLayer and processes it.
// Returns the command's Seq. Handler failures are never returned.
func (e *Engine) Tag(name string, args ...any) int64 {
	seq := e.layer.Push(name, args...)
	e.Process()
	return seq
}

// Process dispatches every entry past the cursor.
//
// If another call is already draining (a reentrant Tag from a handler, or a
// concurrent goroutine), Process returns immediately; the active drainer
// re-checks the layer length after releasing, so nothing is stranded.
//
// A pass that exceeds the step quota stops early and leaves the remaining
// entries for the next call.
func (e *Engine) Process() {
	for {
		if !e.drain.TryLock() {
			return
		}

		quota := NewQuotaEnforcer(e.maxSteps)
		paused := false
		for {
			cursor := int(e.cursor.Load())
			cmd, ok := e.layer.At(cursor)
			if !ok {
				break
			}
			if err := quota.Check(cursor); err != nil {
				e.logger.Warn("tag drain paused", "error", err, "pending", e.layer.Len()-cursor)
				paused = true
				break
			}
			e.cursor.Add(1)
			e.dispatch(cmd)
		}

		e.drain.Unlock()

		// An entry pushed between the last At() and Unlock() saw the lock
		// held and returned; pick it up here.
		if paused || int64(e.layer.Len()) <= e.cursor.Load() {
			return
		}
	}
}

// Cursor returns the index of the next entry to dispatch.
func (e *Engine) Cursor() int {
	return int(e.cursor.Load())
}

// Failures returns the number of dispatch failures so far.
func (e *Engine) Failures() int64 {
	return e.failures.Load()
}

// dispatch runs one command in isolation.
// CRITICAL: Called only while holding e.drain.
func (e *Engine) dispatch(cmd ir.Command) {
	defer func() {
		if r := recover(); r != nil {
			e.report(NewPanicError(cmd, r))
		}
	}()

	if cmd.Name == "" {
		return
	}

	h, ok := e.handler(cmd.Name)
	if !ok {
		e.logger.Debug("unknown tag", "seq", cmd.Seq, "name", cmd.Name, "args", cmd.Args)
		return
	}

	if err := h(cmd); err != nil {
		e.report(NewHandlerError(cmd, err))
	}
}

func (e *Engine) report(de *DispatchError) {
	e.failures.Add(1)
	e.logger.Warn("tag error",
		"seq", de.Seq,
		"name", de.Name,
		"code", string(de.Code),
		"error", de.Error(),
	)
	if e.onError != nil {
		e.onError(de)
	}
}
