package state

import (
	"context"
	"log/slog"
)

// gatedHandler drops every record while the diagnostics flag is off.
type gatedHandler struct {
	inner slog.Handler
	on    func() bool
}

// Logger returns a logger writing to base that only emits while Logging()
// is true. The flag is checked per record, so toggling takes effect
// immediately.
func (s *State) Logger(base *slog.Logger) *slog.Logger {
	if base == nil {
		base = slog.Default()
	}
	return slog.New(&gatedHandler{inner: base.Handler(), on: s.Logging}).With("component", "cprum")
}

func (h *gatedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.on() && h.inner.Enabled(ctx, level)
}

func (h *gatedHandler) Handle(ctx context.Context, r slog.Record) error {
	return h.inner.Handle(ctx, r)
}

func (h *gatedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &gatedHandler{inner: h.inner.WithAttrs(attrs), on: h.on}
}

func (h *gatedHandler) WithGroup(name string) slog.Handler {
	return &gatedHandler{inner: h.inner.WithGroup(name), on: h.on}
}
