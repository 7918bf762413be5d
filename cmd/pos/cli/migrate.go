package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the PostgreSQL schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			if rt.cfg.StoreDriver != app.StoreDriverPostgres {
				return errors.New("migrate requires STORE_DRIVER=postgres")
			}
			pool, err := db.New(cmd.Context(), rt.cfg.PGDSN, 2)
			if err != nil {
				return err
			}
			defer pool.Close()
			if err := db.Migrate(cmd.Context(), pool); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			rt.logger.Info("schema up to date")
			return nil
		},
	}
}
