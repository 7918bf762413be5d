package cli

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/reconciliation"
)

func newAuditCommand(rt *runtime) *cobra.Command {
	var (
		driftedOnly bool
		xlsxPath    string
	)
	cmd := &cobra.Command{
		Use:       "audit customers|suppliers",
		Short:     "Recompute party balances from history and report drift",
		Long:      "audit compares every stored balance with the balance implied by invoices and\npayments. It never corrects balances.",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"customers", "suppliers"},
		RunE: func(cmd *cobra.Command, args []string) error {
			kind := reconciliation.PartyCustomer
			if args[0] == "suppliers" {
				kind = reconciliation.PartySupplier
			}
			container, err := app.Build(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer container.Close()

			report, err := container.Reconciliation.Audit(cmd.Context(), kind)
			if err != nil {
				return err
			}
			if driftedOnly {
				report.Rows = reconciliation.DriftedOnly(report.Rows)
			}
			if xlsxPath != "" {
				return writeAuditFile(xlsxPath, report)
			}
			return printAudit(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().BoolVar(&driftedOnly, "drifted", false, "list drifted parties only")
	cmd.Flags().StringVar(&xlsxPath, "xlsx", "", "write the report to this spreadsheet instead of stdout")
	return cmd
}

func writeAuditFile(path string, report reconciliation.Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := reconciliation.WriteXLSX(f, report); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func printAudit(w io.Writer, report reconciliation.Report) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "ID\tNAME\tSTORED\tCOMPUTED\tDIFF\t")
	for _, row := range report.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t\n",
			row.ID, row.Name,
			row.Stored.StringFixed(2), row.Computed.StringFixed(2), row.Diff.StringFixed(2))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d %s parties, %d drifted, total drift %s\n",
		report.Summary.Parties, report.Kind, report.Summary.Drifted, report.Summary.TotalDrift.StringFixed(2))
	return err
}
