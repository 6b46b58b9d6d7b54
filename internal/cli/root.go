package cli

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/fletes-mx/cotizaciones-backend/database"
	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/routes"
	"github.com/fletes-mx/cotizaciones-backend/internal/storage"
)

// RootCmd returns the cotizador command with every subcommand attached.
func RootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "cotizador",
		Short:   "Freight quotation backend",
		Version: routes.Version,
		Long: `cotizador prices freight quotations, verifies clients with SMS codes
and emails the accept or reject decision to operations.`,
		SilenceUsage: true,
		// Bare "cotizador" serves, which is what the container runs.
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(true)
		},
	}

	rootCmd.AddCommand(ServeCmd())
	rootCmd.AddCommand(MigrateCmd())
	rootCmd.AddCommand(CreateAdminCmd())
	return rootCmd
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := RootCmd().Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig reads .env (outside Cloud Run) and the environment, and sets up
// the global logger.
func loadConfig() (*config.Config, error) {
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		config.LoadDotEnv()
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	setupLogger(cfg.LogLevel)
	return cfg, nil
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.With().Str("service", "cotizador").Logger()
}

// openStore returns the configured store and a label for the health
// endpoint. Database stores are migrated before use.
func openStore(cfg *config.Config) (storage.Store, string, error) {
	if cfg.UseMemoryStore {
		log.Warn().Msg("using in-memory storage (not for production)")
		return storage.NewMemoryStore(), "In-Memory (Testing)", nil
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, "", err
	}
	if err := database.Migrate(db); err != nil {
		return nil, "", err
	}
	return storage.NewDatabaseStore(db), "PostgreSQL Database", nil
}
