package main

import (
	"fmt"

	"github.com/jonathan/resume-screener/internal/db"
	"github.com/spf13/cobra"
)

var migrateCommand = &cobra.Command{
	Use:   "migrate",
	Short: "Create or upgrade the account database schema",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCommand)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.RemoteEnabled() {
		return fmt.Errorf("DATABASE_URL is required to run migrations")
	}

	database, err := db.Connect(cmd.Context(), cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer database.Close()

	applied, err := database.Migrate(cmd.Context())
	if err != nil {
		return err
	}
	if len(applied) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date.")
		return nil
	}
	for _, name := range applied {
		fmt.Fprintf(cmd.OutOrStdout(), "Applied %s\n", name)
	}
	return nil
}
