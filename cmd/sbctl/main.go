// sbctl is the administration CLI for SoulBalance. It reads the same
// configuration as the server.
//
// Usage:
//
//	sbctl migrate
//	sbctl user create --username mira --email mira@example.com --password secret123 --role admin
//	sbctl user set-role mira@example.com admin
package main

import (
	"fmt"
	"os"

	"soulbalance/internal/config"
	"soulbalance/internal/data"
	"soulbalance/internal/logger"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:          "sbctl",
		Short:        "Administer a SoulBalance installation",
		Version:      version,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(userCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app holds what every subcommand needs.
type app struct {
	cfg *config.Config
	log logger.Logger
}

func loadApp() (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &app{cfg: cfg, log: logger.New(cfg.Log, os.Stderr)}, nil
}

// openDB migrates the schema and connects.
func (a *app) openDB() (*sqlx.DB, error) {
	if err := data.ApplyMigrations(a.cfg.DB); err != nil {
		return nil, err
	}
	return data.NewDB(a.cfg.DB)
}
