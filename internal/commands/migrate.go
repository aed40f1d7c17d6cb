package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"school-finance-backend/internal/config"
	"school-finance-backend/internal/models"
)

func newMigrateCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.StorageDriver != config.DriverPostgres {
				return fmt.Errorf("migrate requires STORAGE_DRIVER=%s", config.DriverPostgres)
			}
			db, err := config.InitDB(a.cfg, a.log)
			if err != nil {
				return err
			}
			defer closeDB(db, a.log)()

			if err := db.AutoMigrate(models.All()...); err != nil {
				return fmt.Errorf("auto migrate: %w", err)
			}
			a.log.Info("schema migrated")
			return nil
		},
	}
}
