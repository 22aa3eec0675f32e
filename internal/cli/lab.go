package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/cprum/internal/hud"
	"github.com/roach88/cprum/internal/lab"
)

// labReport is what every lab command prints.
type labReport struct {
	Action      string         `json:"action"`
	DurationMs  int64          `json:"durationMs"`
	Detail      any            `json:"detail,omitempty"`
	TracePoints map[string]any `json:"tracepoints"`
}

func (r labReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%dms)", r.Action, r.DurationMs)
	if r.Detail != nil {
		fmt.Fprintf(&b, "\n%v", r.Detail)
	}
	b.WriteString("\n")
	b.WriteString(hud.TracePointsText(r.TracePoints))
	return b.String()
}

// NewLabCommand creates the lab command group.
func NewLabCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lab",
		Short: "Trigger errors and load on purpose",
		Long:  `Labs exercise the capture pipeline and produce perf:* trace points.`,
	}

	cmd.AddCommand(newLabErrorCommand(rootOpts))
	cmd.AddCommand(newLabStormCommand(rootOpts))
	cmd.AddCommand(newLabComputeCommand(rootOpts))
	cmd.AddCommand(newLabLongTaskCommand(rootOpts))

	return cmd
}

func newErrorLab(s *session) *lab.ErrorLab {
	return lab.NewErrorLab(lab.ErrorLabConfig{
		BaseURL:   s.cfg.BaseURL,
		Capture:   s.page.Capture(),
		Fetch:     s.page.Fetch(),
		XHR:       s.page.XHR(),
		Resources: s.page.BaseClient(),
		Toaster:   s.page,
		Clearer:   s.page.State(),
	})
}

func newPerfLab(s *session) *lab.PerfLab {
	return lab.NewPerfLab(s.page, lab.WithPerfLog(s.page.Log))
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func newLabErrorCommand(rootOpts *RootOptions) *cobra.Command {
	var list bool

	cmd := &cobra.Command{
		Use:   "error <scenario>",
		Short: "Run an error lab scenario",
		Long: `Run one error lab scenario and wait for it to settle, then print the
last captured error and network request. Use --list for the scenario names.

Example:
  cprum lab error throw
  cprum lab error fetch-404 --base-url http://localhost:8080`,
		Args: func(cmd *cobra.Command, args []string) error {
			if list {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
				names := lab.Scenarios()
				if out.Format == "json" {
					return out.Success(names)
				}
				parts := make([]string, len(names))
				for i, n := range names {
					parts[i] = string(n)
				}
				return out.Success(strings.Join(parts, "\n"))
			}

			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			l := newErrorLab(s)
			start := time.Now()
			if err := l.Run(commandContext(cmd), lab.Scenario(args[0])); err != nil {
				if errors.Is(err, lab.ErrUnknownScenario) {
					return WrapExitError(ExitCommandError, "invalid scenario", err)
				}
				return WrapExitError(ExitFailure, "scenario failed", err)
			}
			l.Wait()

			return s.out.Success(labReport{
				Action:     args[0],
				DurationMs: time.Since(start).Milliseconds(),
				Detail: map[string]string{
					"lastError":   hud.ErrorText(s.page.LastError()),
					"lastNetwork": hud.NetworkText(s.page.LastNetwork()),
				},
				TracePoints: s.page.State().Snapshot().TracePoints,
			})
		},
	}

	cmd.Flags().BoolVar(&list, "list", false, "list scenario names")

	return cmd
}

func newLabStormCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		count  int
		runFor time.Duration
	)

	cmd := &cobra.Command{
		Use:   "storm",
		Short: "Run a timer storm",
		Long: fmt.Sprintf(`Start a storm of intervals (clamped to %d..%d) for a while, then stop it.`,
			lab.MinStorm, lab.MaxStorm),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			p := newPerfLab(s)
			started := p.StartStorm(count)
			s.out.VerboseLog("storm started with %d intervals", started)

			select {
			case <-time.After(runFor):
			case <-commandContext(cmd).Done():
			}
			p.StopStorm()

			m := p.Metrics()
			return s.out.Success(labReport{
				Action:      m.LastAction,
				DurationMs:  m.LastDuration.Milliseconds(),
				Detail:      map[string]int{"intervals": started},
				TracePoints: s.page.State().Snapshot().TracePoints,
			})
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", lab.DefaultStorm, "number of intervals")
	cmd.Flags().DurationVar(&runFor, "for", 2*time.Second, "how long the storm runs")

	return cmd
}

func newLabComputeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		limit   int
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "compute",
		Short: "Count primes",
		Long: fmt.Sprintf(`Count primes up to --limit (clamped to %d..%d). --timeout cancels the
computation early.`, lab.MinComputeLimit, lab.MaxComputeLimit),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			ctx := commandContext(cmd)
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}

			res := newPerfLab(s).Compute(ctx, limit)
			return s.out.Success(labReport{
				Action:      "compute",
				DurationMs:  res.Duration.Milliseconds(),
				Detail:      res,
				TracePoints: s.page.State().Snapshot().TracePoints,
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", lab.DefaultComputeLimit, "upper bound")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "cancel after this long (0 for none)")

	return cmd
}

func newLabLongTaskCommand(rootOpts *RootOptions) *cobra.Command {
	var d time.Duration

	cmd := &cobra.Command{
		Use:   "longtask",
		Short: "Block with a busy loop",
		Long: fmt.Sprintf(`Spin for --duration (clamped to %s..%s) to simulate a long task.`,
			lab.MinBusy, lab.MaxBusy),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			p := newPerfLab(s)
			dur := p.BusyLoop(d)
			return s.out.Success(labReport{
				Action:      p.Metrics().LastAction,
				DurationMs:  dur.Milliseconds(),
				TracePoints: s.page.State().Snapshot().TracePoints,
			})
		},
	}

	cmd.Flags().DurationVar(&d, "duration", lab.DefaultBusy, "busy loop length")

	return cmd
}
