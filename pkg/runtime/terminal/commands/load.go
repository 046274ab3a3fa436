package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

type LoadCmd struct {
	file  string
	batch int
	open  Opener
}

func NewLoadCmd(open Opener) *cobra.Command {
	lc := &LoadCmd{open: open}
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Load an eBird Basic Dataset export into the observation store",
		RunE:  lc.run,
	}

	cmd.Flags().StringVar(&lc.file, "file", "", "Path to the tab separated EBD file")
	cmd.Flags().IntVar(&lc.batch, "batch", 5000, "Records per insert batch")

	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func (lc *LoadCmd) run(cmd *cobra.Command, _ []string) error {
	f, err := os.Open(lc.file)
	if err != nil {
		return fmt.Errorf("open %s: %w", lc.file, err)
	}
	defer f.Close()

	return withRegistry(cmd.Context(), lc.open, func(r Registry) error {
		n, err := r.Load(cmd.Context(), f, lc.batch)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "loaded %d records from %s\n", n, lc.file)
		return nil
	})
}
