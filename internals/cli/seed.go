package cli

import (
	"github.com/spf13/cobra"

	"taportal_backend/internals/configs"
	database "taportal_backend/internals/databases"
	"taportal_backend/internals/seeds"
)

func NewSeedCommand(_ *RootOptions) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo module recruitments",
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
			return seeds.RunAllSeeds(db, dir)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVar(&dir, "dir", "internals/seeds", "directory holding the seed JSON files")
	return cmd
}
