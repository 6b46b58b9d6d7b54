package cli

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fletes-mx/cotizaciones-backend/database"
)

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.Connect(cfg.Database)
			if err != nil {
				return err
			}
			if err := database.Migrate(db); err != nil {
				return err
			}
			log.Info().Msg("database migrations completed")
			return nil
		},
	}
}
