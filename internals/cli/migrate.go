package cli

import (
	"github.com/spf13/cobra"

	"taportal_backend/internals/configs"
	database "taportal_backend/internals/databases"
)

func NewMigrateCommand(_ *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := configs.LoadEnv()
			if err != nil {
				return err
			}
			db, err := database.ConnectDB(cfg)
			if err != nil {
				return err
			}
			return database.AutoMigrate(db)
		},
		SilenceUsage: true,
	}
}
