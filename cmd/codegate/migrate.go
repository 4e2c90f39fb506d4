package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	appconfig "github.com/devsque/codegate/app/config"
	"github.com/devsque/codegate/app/projects"
	corecmd "github.com/devsque/codegate/core/cmd"
	"github.com/devsque/codegate/core/database"
	"github.com/devsque/codegate/core/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the project store schema",
		Long: `Applies the schema of the configured project store.

postgres: runs the SQL migrations from database.migrations_dir.
sqlite:   creates the projects table in store.sqlite_path.
memory:   nothing to do.

Safe to run multiple times.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runMigrate(cmd.OutOrStdout(), cfg)
		},
	}
}

func loadConfig(cmd *cobra.Command) (*appconfig.Config, error) {
	flag, _ := cmd.Flags().GetString("config")
	path, err := corecmd.ResolveConfigPath(flag, corecmd.DefaultConfigEnvVar, defaultConfigPath)
	if err != nil {
		return nil, err
	}
	return appconfig.Load(path)
}

func runMigrate(out io.Writer, cfg *appconfig.Config) error {
	if err := logger.InitLogger(cfg.CoreConfig()); err != nil {
		return fmt.Errorf("migrate: logger init: %w", err)
	}
	defer func() { _ = logger.Shutdown() }()

	switch cfg.Store.Driver {
	case appconfig.DriverPostgres:
		sum, err := database.RunMigrations(cfg.Database)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if len(sum.Applied) == 0 {
			fmt.Fprintf(out, "Schema is up to date (version %d).\n", sum.ToVersion)
			return nil
		}
		fmt.Fprintf(out, "Migrated %d -> %d: %s\n", sum.FromVersion, sum.ToVersion, strings.Join(sum.Applied, ", "))
	case appconfig.DriverSQLite:
		db, err := database.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}
		if _, err := projects.NewSQLiteStore(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		fmt.Fprintf(out, "SQLite schema ready at %s.\n", cfg.Store.SQLitePath)
	default:
		fmt.Fprintf(out, "Store driver %q keeps no schema.\n", cfg.Store.Driver)
	}
	return nil
}
