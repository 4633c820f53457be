package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newListCommand(deps *Deps, opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List session transcripts for the current repository, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessions, err := newLocator(deps, opts).List(cmd.Context())
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SESSION\tMODIFIED\tSIZE")
			for _, s := range sessions {
				fmt.Fprintf(w, "%s\t%s\t%d\n", s.ID, s.ModTime.Local().Format(time.DateTime), s.Size)
			}
			return w.Flush()
		},
	}
}
