package cli

import (
	"github.com/spf13/cobra"
)

// themeResult is the output of the theme command.
type themeResult struct {
	Mode     string `json:"mode"`
	Resolved string `json:"resolved"`
}

func (r themeResult) String() string {
	return r.Mode + " (" + r.Resolved + ")"
}

// NewThemeCommand creates the theme command.
func NewThemeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "theme [light|dark|system]",
		Short: "Set or cycle the theme",
		Long: `Set the saved theme mode. Without an argument the mode cycles
light, dark, system. Unknown modes fall back to system.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			var res themeResult
			if len(args) == 0 {
				res.Mode, res.Resolved = s.page.CycleTheme()
			} else {
				res.Resolved = s.page.ApplyTheme(args[0])
				res.Mode = s.page.State().Snapshot().Theme
			}
			return s.out.Success(res)
		},
	}
}
