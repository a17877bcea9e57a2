package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/reporting"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "List and export census reports",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the available measures",
		RunE: func(cmd *cobra.Command, args []string) error {
			return listMeasures(cmd.OutOrStdout())
		},
	})

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Evaluate a measure and write it to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, _ := cmd.Flags().GetString("measure")
			out, _ := cmd.Flags().GetString("out")

			cfg, clock, err := loadConfig()
			if err != nil {
				return err
			}
			ctx := context.Background()
			pool, err := connect(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			n, err := exportMeasure(ctx, reporting.NewPoolRunner(pool), id, out, clock.Now().Time)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d row(s) to %s\n", n, out)
			return nil
		},
	}
	exportCmd.Flags().String("measure", "", "Measure id (see report list)")
	exportCmd.Flags().String("out", "", "Destination .xlsx file")
	_ = exportCmd.MarkFlagRequired("measure")
	_ = exportCmd.MarkFlagRequired("out")
	cmd.AddCommand(exportCmd)

	return cmd
}

func listMeasures(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESCRIPTION")
	for _, m := range reporting.PredefinedMeasures {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.ID, m.Name, m.Description)
	}
	return tw.Flush()
}

// exportMeasure evaluates measure id and writes the workbook to path. It
// returns the number of data rows written.
func exportMeasure(ctx context.Context, r reporting.Runner, id, path string, now time.Time) (int, error) {
	m := reporting.FindMeasure(id)
	if m == nil {
		return 0, fmt.Errorf("unknown measure %q", id)
	}
	report, err := reporting.Evaluate(ctx, r, m, now)
	if err != nil {
		return 0, err
	}
	data, err := reporting.WriteWorkbook(m.ID, report.Table())
	if err != nil {
		return 0, fmt.Errorf("build workbook: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return 0, fmt.Errorf("write %s: %w", path, err)
	}
	return len(report.Results), nil
}
