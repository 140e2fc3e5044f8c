package main

import (
	"soulbalance/internal/data"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := loadApp()
			if err != nil {
				return err
			}
			a.log.Info("Applying database migrations...")
			if err := data.ApplyMigrations(a.cfg.DB); err != nil {
				return err
			}
			a.log.Info("Migrations applied successfully.")
			return nil
		},
	}
}
