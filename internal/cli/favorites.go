package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

// favoritesList prints one ID per line in text mode.
type favoritesList []string

func (f favoritesList) String() string {
	if len(f) == 0 {
		return "(no favorites)"
	}
	return strings.Join(f, "\n")
}

// NewFavoritesCommand creates the favorites command.
func NewFavoritesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "favorites",
		Short: "Manage saved favorites",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, rootOpts, nil)
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "add <id>",
		Short: "Add a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, rootOpts, func(s *session) {
				s.page.AddFavorite(args[0])
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a favorite",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withFavorites(cmd, rootOpts, func(s *session) {
				s.page.RemoveFavorite(args[0])
			})
		},
	})

	return cmd
}

func withFavorites(cmd *cobra.Command, rootOpts *RootOptions, fn func(*session)) error {
	s, err := openSession(cmd, rootOpts)
	if err != nil {
		return err
	}
	defer s.close()

	if fn != nil {
		fn(s)
	}
	return s.out.Success(favoritesList(s.page.Favorites()))
}
