package cli

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cprum/internal/capture"
	"github.com/roach88/cprum/internal/hud"
	"github.com/roach88/cprum/internal/ir"
)

// FetchOptions holds flags for the fetch command.
type FetchOptions struct {
	*RootOptions
	Method string
	XHR    bool
	Delay  time.Duration
}

// NewFetchCommand creates the fetch command.
func NewFetchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &FetchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "fetch <url>",
		Short: "Issue an instrumented request",
		Long: `Send a request through the instrumented fetch client, or through the
callback-style XHR client with --xhr, and print the captured network event.

Relative URLs are resolved against the configured base URL.

Example:
  cprum fetch /data/sample.json
  cprum fetch --xhr https://example.com/missing
  cprum fetch --delay 1.6s /data/sample.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.close()

			url := resolveURL(s.cfg.BaseURL, args[0])
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			if opts.XHR {
				err = sendXHR(ctx, s, opts.Method, url)
			} else {
				err = sendFetch(ctx, s, opts.Method, url, opts.Delay)
			}
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to send request", err)
			}

			ev := s.page.LastNetwork()
			if ev == nil {
				return NewExitError(ExitFailure, "no network event captured")
			}
			if werr := writeNetwork(s, ev); werr != nil {
				return werr
			}
			if !ev.OK {
				failed := NewExitError(ExitFailure, "request failed")
				failed.Reported = true
				return failed
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.Method, "method", "X", http.MethodGet, "HTTP method")
	cmd.Flags().BoolVar(&opts.XHR, "xhr", false, "send through the XHR client")
	cmd.Flags().DurationVar(&opts.Delay, "delay", 0, "wait before sending (GET through fetch only, max 10s)")

	return cmd
}

// resolveURL joins relative paths onto base.
func resolveURL(base, target string) string {
	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		return target
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(target, "/")
}

// sendFetch issues the request and drains the body. Transport errors are
// already captured as the last network event, so they are not returned.
func sendFetch(ctx context.Context, s *session, method, url string, delay time.Duration) error {
	var (
		resp *http.Response
		err  error
	)
	if delay > 0 && method == http.MethodGet {
		resp, err = capture.SlowFetch(ctx, s.page.Fetch(), url, delay)
	} else {
		var req *http.Request
		req, err = http.NewRequestWithContext(ctx, method, url, nil)
		if err != nil {
			return err
		}
		resp, err = s.page.Fetch().Do(req)
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return nil
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func sendXHR(ctx context.Context, s *session, method, url string) error {
	r := s.page.XHR().New()
	r.Open(method, url)
	if err := r.Send(ctx, nil); err != nil {
		return err
	}
	r.Wait()
	return nil
}

func writeNetwork(s *session, ev *ir.NetworkEvent) error {
	if s.out.Format == "json" {
		return s.out.Success(ev)
	}
	return s.out.Success(hud.NetworkText(ev))
}
