package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/cprum/internal/hud"
	"github.com/roach88/cprum/internal/state"
)

// HUDOptions holds flags for the hud command.
type HUDOptions struct {
	*RootOptions
	ToggleLogging bool
}

// hudView is the JSON shape of the hud command.
type hudView struct {
	State       state.Snapshot `json:"state"`
	LastError   string         `json:"lastErrorText"`
	LastNetwork string         `json:"lastNetworkText"`
}

// NewHUDCommand creates the hud command.
func NewHUDCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HUDOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "hud",
		Short: "Show the debug HUD",
		Long: `Open the debug HUD and print it.

The HUD shows logging, the page group, trace points, the last captured
error and the last settled network request.

Example:
  cprum hud
  cprum hud --toggle-logging`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, opts.RootOptions)
			if err != nil {
				return err
			}
			defer s.close()

			panel := s.page.Panel()
			if opts.ToggleLogging {
				panel.ToggleLogging()
			}
			s.page.HandleKey(hud.Key{Name: "d", Ctrl: true, Shift: true})

			if s.out.Format == "json" {
				_, errText, netText := panel.Sections()
				return s.out.Success(hudView{
					State:       s.page.State().Snapshot(),
					LastError:   errText,
					LastNetwork: netText,
				})
			}
			return s.out.Success(panel.View())
		},
	}

	cmd.Flags().BoolVar(&opts.ToggleLogging, "toggle-logging", false, "flip the logging flag before rendering")

	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var last bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear trace points",
		Long: `Remove every trace point. With --last the last error and last network
request are forgotten too.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			s.page.Panel().Clear()
			if last {
				s.page.State().ClearLast()
			}
			return writeState(s, s.page.State().Snapshot())
		},
	}

	cmd.Flags().BoolVar(&last, "last", false, "also clear the last error and network request")

	return cmd
}
