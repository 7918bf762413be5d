// Package cli holds the pos command tree: the HTTP server plus operator
// helpers for migrations, audits, the cashbox and background jobs.
package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
)

var version = "dev"

// runtime is filled by the root command before any subcommand runs.
type runtime struct {
	envFile string
	cfg     *app.Config
	logger  *slog.Logger
}

// NewRootCommand assembles the command tree.
func NewRootCommand() *cobra.Command {
	rt := &runtime{}
	root := &cobra.Command{
		Use:           "pos",
		Short:         "Point-of-sale ledger service",
		Long:          "pos serves the sales, purchases, payments, expenses and cashbox API and\nkeeps stock, party balances and the cashbox consistent with document history.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rt.load()
		},
	}
	root.PersistentFlags().StringVar(&rt.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newAuditCommand(rt),
		newCashboxCommand(rt),
		newJobsCommand(rt),
	)
	return root
}

func (rt *runtime) load() error {
	if rt.envFile != "" {
		if err := godotenv.Load(rt.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("load %s: %w", rt.envFile, err)
		}
	}
	cfg, err := app.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rt.cfg = cfg
	rt.logger = app.NewLogger(cfg)
	return nil
}
