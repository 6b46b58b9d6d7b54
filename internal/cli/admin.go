package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fletes-mx/cotizaciones-backend/internal/models"
	"github.com/fletes-mx/cotizaciones-backend/internal/services"
)

// CreateAdminCmd returns the create-admin command, used to bootstrap the
// first administrator since the admin API itself requires a token.
func CreateAdminCmd() *cobra.Command {
	var in models.AdministratorInput

	cmd := &cobra.Command{
		Use:   "create-admin",
		Short: "Create an administrator account",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.UseMemoryStore {
				return fmt.Errorf("create-admin needs a database; unset USE_MEMORY_STORE")
			}
			store, _, err := openStore(cfg)
			if err != nil {
				return err
			}

			admin, err := services.NewAdminService(store).Create(context.Background(), in)
			if err != nil {
				return err
			}
			fmt.Printf("Administrator %d created for %s\n", admin.ID, admin.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&in.Email, "email", "", "login email")
	cmd.Flags().StringVar(&in.Password, "password", "", "login password (at least 8 characters)")
	cmd.Flags().StringVar(&in.Name, "name", "", "first name")
	cmd.Flags().StringVar(&in.Surname, "surname", "", "last name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}
