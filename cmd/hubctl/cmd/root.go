// Package cmd implements the hubctl maintenance commands.
package cmd

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"ministry_hub/internal/config"
	"ministry_hub/internal/db"
)

// needsDB marks commands that open the database before running.
const needsDB = "needs-db"

var (
	cfg config.Config
	gdb *gorm.DB

	okFmt   = color.New(color.FgGreen).SprintFunc()
	warnFmt = color.New(color.FgYellow).SprintFunc()
	dimFmt  = color.New(color.Faint).SprintFunc()
)

var rootCmd = &cobra.Command{
	Use:   "hubctl",
	Short: "Maintenance CLI for the ministry hub",
	Long: `hubctl runs one-off maintenance tasks against the ministry hub database.

It reads the same environment (.env, DB_DRIVER, DB_DSN, SEED_ADMIN_*) as the API.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Annotations[needsDB] == "" {
			return nil
		}
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		gdb, err = db.Connect(cfg.DBDriver, cfg.DSN)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if gdb == nil {
			return
		}
		if sqlDB, err := gdb.DB(); err == nil {
			sqlDB.Close()
		}
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
