package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/cprum/internal/store"
)

// storageList prints "key = value" lines in text mode.
type storageList []store.Entry

func (l storageList) String() string {
	if len(l) == 0 {
		return "(empty)"
	}
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s = %s", e.Key, e.Value)
	}
	return b.String()
}

// NewStorageCommand creates the storage command.
func NewStorageCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "storage",
		Short: "List persisted keys",
		Long:  `Print every key in the store with its raw value, most recently written first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd, rootOpts)
			if err != nil {
				return err
			}
			defer s.close()

			return s.out.Success(storageList(s.page.KV().Entries()))
		},
	}
}
