package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/sheegull/deephand-forms/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the submissions archive table",
	Long: `Create the submissions archive table in the database named by DATABASE_URL.

The statements are idempotent and safe to run on every deploy.

Example:
  deephand-forms migrate            # Apply the schema
  deephand-forms migrate --dry-run  # Print the statements only`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if dryRun, _ := cmd.Flags().GetBool("dry-run"); dryRun {
			for _, stmt := range db.MigrationStatements() {
				fmt.Fprintf(cmd.OutOrStdout(), "%s;\n", stmt)
			}
			return nil
		}

		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), time.Minute)
		defer cancel()

		s := spinner.New(spinner.CharSets[14], 120*time.Millisecond)
		s.Suffix = " Applying database schema..."
		s.Writer = cmd.ErrOrStderr()
		s.Start()
		defer s.Stop()

		drv, err := db.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer drv.Close()

		if err := db.Migrate(ctx, drv); err != nil {
			return err
		}

		s.Stop()
		logger.Info("Database schema is up to date")
		return nil
	},
}

func init() {
	migrateCmd.Flags().Bool("dry-run", false, "Print the schema statements without applying them")
}
