package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"ministry_hub/internal/db"
	"ministry_hub/internal/seed"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
}

var migrateCmd = &cobra.Command{
	Use:         "migrate",
	Short:       "Create or update the database tables",
	Annotations: map[string]string{needsDB: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), okFmt("schema up to date"))
		return nil
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create the default ministry and the first ADMIN account",
	Long: `Create the default ministry and the first ADMIN account.

The account comes from SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD. An existing
admin keeps its password, so running this twice is safe.`,
	Annotations: map[string]string{needsDB: "true"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := db.AutoMigrate(gdb); err != nil {
			return err
		}
		admin := seed.Admin{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword}
		if err := seed.FirstSetup(gdb, admin); err != nil {
			return err
		}
		email := admin.Email
		if email == "" {
			email = seed.DefaultAdminEmail
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s admin account %s\n", okFmt("seeded"), email)
		if admin.Password == "" {
			fmt.Fprintln(cmd.OutOrStdout(), warnFmt("default password in use, change it after first login"))
		}
		return nil
	},
}
