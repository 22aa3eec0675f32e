package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/roach88/cprum/internal/config"
	"github.com/roach88/cprum/internal/notify"
	"github.com/roach88/cprum/internal/page"
	"github.com/roach88/cprum/internal/store"
	"github.com/roach88/cprum/internal/transport"
)

// session is one booted page plus the output plumbing of a command.
type session struct {
	cfg  config.Config
	page *page.Page
	out  *OutputFormatter
}

// loadConfig reads --config and layers explicitly set flags on top.
func loadConfig(cmd *cobra.Command, opts *RootOptions) (config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return cfg, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	if cmd.Flags().Changed("db") {
		cfg.DB = opts.Database
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL = opts.BaseURL
	}
	return cfg, nil
}

// openSession loads config, opens the store and boots a page. Callers must
// close the returned session.
func openSession(cmd *cobra.Command, opts *RootOptions) (*session, error) {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return nil, err
	}

	// Configure logging based on verbose flag
	logLevel := slog.LevelInfo
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	out := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	client, err := transport.New(transport.Options{
		Timeout:      cfg.HTTP.Timeout(),
		DialTimeout:  transport.DefaultOptions().DialTimeout,
		DisableHTTP2: cfg.HTTP.DisableHTTP2,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to build HTTP client", err)
	}

	out.VerboseLog("opening store %s", cfg.DB)
	st, err := store.Open(cfg.DB)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}

	p, err := page.New(page.Options{
		Backend:     st,
		HTTPClient:  client,
		Logger:      logger,
		PrefersDark: cfg.PrefersDark,
		TaskLimit:   cfg.TaskLimit,
		OnToast:     toastPrinter(out),
	})
	if err != nil {
		_ = st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to build page", err)
	}
	// The configured theme only seeds a store that has none saved.
	if cfg.Theme != "" && p.KV().Get(store.KeyTheme, "") == "" {
		p.ApplyTheme(cfg.Theme)
	}
	p.Boot()
	out.Session = p.State().SessionID()

	return &session{cfg: cfg, page: p, out: out}, nil
}

func (s *session) close() {
	if err := s.page.Close(); err != nil {
		slog.Error("error closing store", "error", err)
	}
}

// toastPrinter writes each toast as one colored line to the diagnostic
// writer, so JSON output on stdout stays clean.
func toastPrinter(out *OutputFormatter) func(notify.Toast) {
	return func(t notify.Toast) {
		c := toastColor(t.Kind)
		fmt.Fprintf(out.GetErrWriter(), "%s %s (%s)\n",
			c.Sprintf("[%s]", t.Title), t.Message, t.TTL.Round(time.Millisecond))
	}
}

func toastColor(kind notify.Kind) *color.Color {
	switch kind {
	case notify.KindOK:
		return color.New(color.FgHiGreen, color.Bold)
	case notify.KindDanger:
		return color.New(color.FgRed, color.Bold)
	default:
		return color.New(color.FgCyan, color.Bold)
	}
}
