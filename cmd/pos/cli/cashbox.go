package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
)

func newCashboxCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cashbox",
		Short: "Inspect the cashbox",
	}
	var recent int
	balance := &cobra.Command{
		Use:   "balance",
		Short: "Print the cashbox balance and the latest transactions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			container, err := app.Build(cmd.Context(), rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer container.Close()

			summary, err := container.Cashbox.Summary(cmd.Context(), recent)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "balance: %s\n", summary.Balance.StringFixed(2))
			for _, t := range summary.Transactions {
				fmt.Fprintf(out, "%s  %-7s %12s  %s\n",
					t.CreatedAt.Format("2006-01-02 15:04"), t.Type, t.Amount.StringFixed(2), t.Description)
			}
			return nil
		},
	}
	balance.Flags().IntVar(&recent, "recent", 10, "number of recent transactions to list")
	cmd.AddCommand(balance)
	return cmd
}
