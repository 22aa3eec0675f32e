// Package transport builds the base HTTP client that instrumentation wraps.
package transport

import (
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"
)

// Options configures the base client.
type Options struct {
	// Timeout bounds a whole request. Zero means no client-level timeout.
	Timeout time.Duration
	// DialTimeout bounds connection establishment.
	DialTimeout time.Duration
	// DisableHTTP2 keeps the transport on HTTP/1.1.
	DisableHTTP2 bool
}

// DefaultOptions returns the settings the CLI uses.
func DefaultOptions() Options {
	return Options{
		Timeout:     30 * time.Second,
		DialTimeout: 5 * time.Second,
	}
}

// New creates an HTTP client whose transport negotiates HTTP/2 over TLS.
func New(opts Options) (*http.Client, error) {
	t, err := NewTransport(opts)
	if err != nil {
		return nil, err
	}
	return &http.Client{
		Transport: t,
		Timeout:   opts.Timeout,
	}, nil
}

// NewTransport creates the bare *http.Transport used by New.
func NewTransport(opts Options) (*http.Transport, error) {
	dialTimeout := opts.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 5 * time.Second
	}

	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   dialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	if !opts.DisableHTTP2 {
		if err := http2.ConfigureTransport(t); err != nil {
			return nil, fmt.Errorf("failed to configure HTTP/2: %w", err)
		}
	}

	return t, nil
}
