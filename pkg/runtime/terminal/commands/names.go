package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func NewNamesCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Inspect observer display names",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <observer-id>...",
		Short: "Resolve observer ids to display names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd.Context(), open, func(r Registry) error {
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, id := range args {
					name, err := r.ResolveName(cmd.Context(), id)
					if err != nil {
						return err
					}
					fmt.Fprintf(w, "%s\t%s\n", id, name)
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List cached display names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRegistry(cmd.Context(), open, func(r Registry) error {
				cached, err := r.CachedNames(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, c := range cached {
					fmt.Fprintf(w, "%s\t%s\t%s\n", c.ObserverID, c.DisplayName, c.ResolvedAt.Format("2006-01-02"))
				}
				return w.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "clear",
		Short: "Forget all cached display names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withRegistry(cmd.Context(), open, func(r Registry) error {
				return r.ClearNames(cmd.Context())
			})
		},
	})

	return cmd
}
