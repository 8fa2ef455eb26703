package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sheegull/deephand-forms/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the forms API server",
	Long: `Run the forms API server.

Configuration is read from the environment and from .env / .env.$ENV files.
Backing services that are not configured fall back to local implementations:
counters in memory, submissions on disk and notifications written to MAIL_DIR.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		defer logger.Close()

		if port, _ := cmd.Flags().GetString("port"); port != "" {
			cfg.Port = port
		}

		// Set up context and signal handling
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		logger.Info("Starting server in %s mode", cfg.Environment)

		srv, err := server.NewServer(ctx, cfg, logger)
		if err != nil {
			logger.Error("Failed to create server: %v", err)
			return err
		}

		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().String("port", "", "Port to listen on (overrides API_PORT)")
}
