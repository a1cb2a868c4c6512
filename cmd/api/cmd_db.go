package main

import (
	"database/sql"
	"fmt"

	"catalog-api/internal/config"
	"catalog-api/internal/database"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// bootPostgres opens the postgres database; migrations only apply to it.
func bootPostgres(cmd *cobra.Command) (*config.Config, *zap.Logger, *sql.DB, error) {
	cfg, log, err := boot()
	if err != nil {
		return nil, nil, nil, err
	}
	if cfg.Database.Driver != config.DriverPostgres {
		return nil, nil, nil, fmt.Errorf("migrations require DB_DRIVER=%s, got %q", config.DriverPostgres, cfg.Database.Driver)
	}

	db, err := database.OpenPostgres(cmd.Context(), cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}
	return cfg, log, db, nil
}

// catalog-api migrate
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run all pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootPostgres(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		defer log.Sync()

		return database.RunMigrations(db, cfg.Database.MigrationsDir, log)
	},
}

// catalog-api migrate-status
var migrateStatusCmd = &cobra.Command{
	Use:   "migrate-status",
	Short: "Show the status of each migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, db, err := bootPostgres(cmd)
		if err != nil {
			return err
		}
		defer db.Close()
		defer log.Sync()

		return database.MigrationStatus(db, cfg.Database.MigrationsDir)
	},
}
