package store

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Storage keys shared by the runtime and page consumers.
const (
	KeyLogging     = "cprum-logging"
	KeyTracePoints = "cprum-tracepoints"
	KeyPageGroup   = "cprum-pageGroup"
	KeyTheme       = "theme"
	KeyFavorites   = "blaugrana-favorites"
	KeyCart        = "blaugrana-cart"
)

// DefaultTimeout bounds a single backend operation.
const DefaultTimeout = 2 * time.Second

// KV is the failure-tolerant facade over a Backend.
//
// No KV method returns an error: reads fall back, writes are fire-and-forget.
type KV struct {
	backend Backend
	logger  *slog.Logger
	timeout time.Duration
}

// KVOption configures a KV.
type KVOption func(*KV)

// WithLogger sets the logger used for swallowed failures.
func WithLogger(l *slog.Logger) KVOption {
	return func(k *KV) {
		k.logger = l
	}
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) KVOption {
	return func(k *KV) {
		k.timeout = d
	}
}

// NewKV wraps backend.
func NewKV(backend Backend, opts ...KVOption) *KV {
	k := &KV{
		backend: backend,
		logger:  slog.Default(),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Backend returns the wrapped backend.
func (k *KV) Backend() Backend {
	return k.backend
}

func (k *KV) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), k.timeout)
}

// Get returns the raw value for key, or fallback when the key is missing or
// the backend fails.
func (k *KV) Get(key, fallback string) string {
	ctx, cancel := k.ctx()
	defer cancel()

	v, ok, err := k.backend.Get(ctx, key)
	if err != nil {
		k.logger.Debug("store read failed", "key", key, "error", err)
		return fallback
	}
	if !ok {
		return fallback
	}
	return v
}

// Set stores value under key. Failures are swallowed.
func (k *KV) Set(key, value string) {
	ctx, cancel := k.ctx()
	defer cancel()

	if err := k.backend.Set(ctx, key, value); err != nil {
		k.logger.Debug("store write failed", "key", key, "error", err)
	}
}

// Remove deletes key. Failures are swallowed.
func (k *KV) Remove(key string) {
	ctx, cancel := k.ctx()
	defer cancel()

	if err := k.backend.Delete(ctx, key); err != nil {
		k.logger.Debug("store delete failed", "key", key, "error", err)
	}
}

// GetJSON decodes the value under key into dst.
// Returns false, leaving dst untouched, when the key is missing or empty,
// the backend fails, or the stored text is not valid JSON. A type mismatch
// also returns false.
func (k *KV) GetJSON(key string, dst any) bool {
	raw := k.Get(key, "")
	if raw == "" {
		return false
	}
	if !json.Valid([]byte(raw)) {
		k.logger.Debug("store value is not JSON", "key", key)
		return false
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		k.logger.Debug("store value decode failed", "key", key, "error", err)
		return false
	}
	return true
}

// SetJSON encodes v and stores it under key. Encoding and write failures
// are swallowed.
func (k *KV) SetJSON(key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		k.logger.Debug("store value encode failed", "key", key, "error", err)
		return
	}
	k.Set(key, string(data))
}

// Lister is implemented by backends that can enumerate their keys.
type Lister interface {
	Keys(ctx context.Context) ([]string, error)
}

// Entry is one stored key and its value.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Entries returns every stored pair in the backend's key order. A backend
// that cannot list keys, or fails to, yields nil.
func (k *KV) Entries() []Entry {
	lister, ok := k.backend.(Lister)
	if !ok {
		return nil
	}
	ctx, cancel := k.ctx()
	defer cancel()

	keys, err := lister.Keys(ctx)
	if err != nil {
		k.logger.Debug("store list failed", "error", err)
		return nil
	}
	out := make([]Entry, 0, len(keys))
	for _, key := range keys {
		v, found, err := k.backend.Get(ctx, key)
		if err != nil || !found {
			continue
		}
		out = append(out, Entry{Key: key, Value: v})
	}
	return out
}
