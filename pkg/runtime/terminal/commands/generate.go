package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ses4j/ebird-statistical-report/pkg/services/report"
)

type GenerateCmd struct {
	region string
	year   int
	asOf   string
	format string
	open   Opener
}

func NewGenerateCmd(open Opener) *cobra.Command {
	gc := &GenerateCmd{open: open}
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate the annual report for a region",
		RunE:  gc.run,
	}

	cmd.Flags().StringVar(&gc.region, "region", "", "Region code (e.g., US-DC, US-MD-031)")
	cmd.Flags().IntVar(&gc.year, "year", time.Now().Year()-1, "Report year")
	cmd.Flags().StringVar(&gc.asOf, "as-of", "", "Data cutoff date (YYYY-MM-DD), defaults to Dec 31 of the report year")
	cmd.Flags().StringVar(&gc.format, "format", "", "Output format (latex, pdf, xlsx or text), defaults to output.format")

	_ = cmd.MarkFlagRequired("region")

	return cmd
}

func (gc *GenerateCmd) run(cmd *cobra.Command, _ []string) error {
	req := report.Request{RegionCode: gc.region, Year: gc.year, Format: gc.format}
	if gc.asOf != "" {
		asOf, err := time.Parse(time.DateOnly, gc.asOf)
		if err != nil {
			return fmt.Errorf("invalid --as-of %q: %w", gc.asOf, err)
		}
		req.AsOf = asOf
	}

	return withRegistry(cmd.Context(), gc.open, func(r Registry) error {
		path, err := r.Generate(cmd.Context(), req)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	})
}
