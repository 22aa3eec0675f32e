package cli

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/roach88/cprum/internal/state"
)

// NewTagCommand creates the tag command.
func NewTagCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tag <command> [args...]",
		Short: "Queue a DataLayer command",
		Long: `Append a command to the DataLayer and process it.

Arguments are decoded as JSON when they parse, otherwise passed as strings.
Unknown commands are ignored.

Example:
  cprum tag logging true
  cprum tag tracepoint checkout '{"step":2}'
  cprum tag pageGroup Shop`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			s.page.Tag(args[0], parseArgs(args[1:])...)
			return writeState(s, s.page.State().Snapshot())
		},
	}
}

// parseArgs decodes each argument as JSON, falling back to the raw string.
func parseArgs(raw []string) []any {
	out := make([]any, len(raw))
	for i, a := range raw {
		var v any
		if err := json.Unmarshal([]byte(a), &v); err != nil {
			v = a
		}
		out[i] = v
	}
	return out
}

// writeState prints the state section the HUD would show.
func writeState(s *session, snap state.Snapshot) error {
	if s.out.Format == "json" {
		return s.out.Success(snap)
	}
	return s.out.Success(s.page.Renderer().StateText(snap))
}
