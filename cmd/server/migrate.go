package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"helphub/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE:  runMigrate("up"),
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE:  runMigrate("down"),
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show applied and pending migrations",
	RunE:  runMigrate("status"),
}

func init() {
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)
}

func runMigrate(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		cfg, logger, err := setup()
		if err != nil {
			return err
		}
		gdb, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN, logger)
		if err != nil {
			return fmt.Errorf("database init: %w", err)
		}
		if sqlDB, err := gdb.DB(); err == nil {
			defer sqlDB.Close()
		}

		m, err := db.NewMigrator(gdb, cfg.DBDriver, logger)
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		switch action {
		case "up":
			return m.Up(ctx)
		case "down":
			return m.Down(ctx)
		case "status":
			states, err := m.Status(ctx)
			if err != nil {
				return err
			}
			for _, s := range states {
				state := "pending"
				if s.Applied {
					state = "applied"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%05d  %-8s %s\n", s.Version, state, s.Path)
			}
			return nil
		default:
			return fmt.Errorf("unknown migrate action %q", action)
		}
	}
}
