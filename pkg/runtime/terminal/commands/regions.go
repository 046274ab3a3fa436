package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func NewRegionsCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "regions",
		Short: "Inspect region codes",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "describe <code>",
		Short: "Show the level and description of a region code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRegistry(cmd.Context(), open, func(r Registry) error {
				region, err := r.Region(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", region.Code, region.Level, region.Description)
				return nil
			})
		},
	})

	return cmd
}
