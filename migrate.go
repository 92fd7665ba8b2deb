package main

import (
	"fmt"
	"os"

	"smart-notes/config"
	"smart-notes/db"
	"smart-notes/logging"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the users and notes tables if they do not exist",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.DBDriver != config.DriverMySQL {
			return fmt.Errorf("migrate requires DB_DRIVER=%s, got %q", config.DriverMySQL, cfg.DBDriver)
		}
		logger := logging.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)

		conn, err := db.Connect(cmd.Context(), cfg.DSN, cfg.DBPingTimeout)
		if err != nil {
			return fmt.Errorf("database setup failed: %w", err)
		}
		defer conn.Close()

		if err := db.Migrate(cmd.Context(), conn); err != nil {
			return err
		}
		logger.Info("Schema is up to date")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
