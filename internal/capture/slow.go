package capture

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// MaxSlowDelay caps the artificial delay of SlowFetch.
const MaxSlowDelay = 10 * time.Second

// ClampDelay bounds d to [0, MaxSlowDelay].
func ClampDelay(d time.Duration) time.Duration {
	switch {
	case d < 0:
		return 0
	case d > MaxSlowDelay:
		return MaxSlowDelay
	default:
		return d
	}
}

// SlowFetch waits for the clamped delay, then issues a GET through client.
// Pass an instrumented client to have the request recorded. The wait is
// cancelled with ctx.
func SlowFetch(ctx context.Context, client *http.Client, url string, delay time.Duration) (*http.Response, error) {
	timer := time.NewTimer(ClampDelay(delay))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	return client.Do(req)
}
