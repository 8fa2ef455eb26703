package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sheegull/deephand-forms/internal/config"
	"github.com/sheegull/deephand-forms/internal/logging"
	"github.com/sheegull/deephand-forms/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "deephand-forms",
	Short: "DeepHand forms backend",
	Long: `DeepHand forms backend receives contact and data-request submissions from
the marketing site, stores them and notifies the sales inbox.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("deephand-forms {{.Version}}\n")
	rootCmd.AddCommand(serveCmd, migrateCmd, versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show build information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.GetBuildInfo()
		fmt.Fprintf(cmd.OutOrStdout(), "Version:    %s\n", info.Version)
		fmt.Fprintf(cmd.OutOrStdout(), "Build time: %s\n", info.BuildTime)
		fmt.Fprintf(cmd.OutOrStdout(), "Git commit: %s\n", info.GitCommit)
		fmt.Fprintf(cmd.OutOrStdout(), "Go:         %s\n", info.GoVersion)
	},
}

// loadConfig reads the environment and configures the global logger from it.
func loadConfig() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	logging.Configure(&logging.Config{
		Level:       cfg.LogLevel,
		File:        cfg.LogFile,
		MaxSize:     100,
		MaxBackups:  3,
		MaxAge:      7,
		LogRequests: cfg.LogRequests,
	})
	return cfg, logging.GetLogger(), nil
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
