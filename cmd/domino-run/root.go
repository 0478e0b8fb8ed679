package main

import (
	"github.com/spf13/cobra"

	domino "github.com/dominodatalab/domino-go"
	"github.com/dominodatalab/domino-go/internal/logger"
)

var (
	trackingURI string
	apiKey      string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "domino-run",
	Short: "Domino CLI - track command-line workloads as runs",
	Long: `domino-run tracks the execution of command-line workloads in the
Domino tracking backend.

Example:
  domino-run wrap -- python train.py
  domino-run wrap --name "training-v1" --experiment my-model -- ./train.sh`,
	Version: domino.Version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := "info"
		if verbose {
			level = "debug"
		}
		return logger.Init(logger.Config{Level: level, Format: "console"})
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&trackingURI, "tracking-uri", "", "Tracking server URL (or set MLFLOW_TRACKING_URI)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Tracking API key (or set DOMINO_USER_API_KEY)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")

	rootCmd.AddCommand(wrapCmd)
}

// Execute runs the CLI
func Execute() error {
	return rootCmd.Execute()
}
