package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Clark-Hu/ratingz/internal/migrations"
)

var migrateDBURL string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		url, err := databaseURL()
		if err != nil {
			return err
		}
		return migrateUp(url, rootLogger)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down [steps]",
	Short: "Roll back migrations, all of them unless steps is given",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		steps := 0
		if len(args) == 1 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return fmt.Errorf("steps must be a positive integer, got %q", args[0])
			}
			steps = n
		}
		return withMigrator(func(m *migrations.Migrator) error {
			if steps == 0 {
				return m.Down()
			}
			return m.Steps(-steps)
		})
	},
}

var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the applied schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withMigrator(func(m *migrations.Migrator) error {
			version, dirty, err := m.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "version %d (dirty: %t)\n", version, dirty)
			return nil
		})
	},
}

func init() {
	migrateCmd.PersistentFlags().StringVar(&migrateDBURL, "db-url", "", "database URL (defaults to DB_URL)")
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateVersionCmd)
}

func databaseURL() (string, error) {
	if migrateDBURL != "" {
		return migrateDBURL, nil
	}
	if url := os.Getenv("DB_URL"); url != "" {
		return url, nil
	}
	return "", fmt.Errorf("DB_URL is required")
}

func withMigrator(fn func(m *migrations.Migrator) error) error {
	url, err := databaseURL()
	if err != nil {
		return err
	}
	m, err := migrations.New(url, rootLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			rootLogger.Warn("close migrator", zap.Error(err))
		}
	}()
	return fn(m)
}

func migrateUp(url string, logger *zap.Logger) error {
	m, err := migrations.New(url, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return m.Up()
}
