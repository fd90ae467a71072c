// Command verifypaths loads .env and checks that SHAPENET_DATASET_PATH and
// DINO_PROJECT_PATH are set, exiting with status 1 when either is missing.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"ckpthub/pkg/config"
	"ckpthub/pkg/envpaths"
	"ckpthub/pkg/logger"
	"ckpthub/pkg/ui"
)

func main() {
	var (
		envFile  string
		logLevel string
		noColor  bool
	)

	cmd := &cobra.Command{
		Use:           "verifypaths",
		Short:         "Verify the dataset and project paths in .env",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			logCfg := config.DefaultConfig().Logging
			if logLevel != "" {
				logCfg.Level = logLevel
			}
			logCfg.NoColor = noColor
			if err := logger.Initialize(&logCfg); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}

			printer := ui.NewPrinter(os.Stdout, !noColor)
			envpaths.NewVerifier(printer, logger.GetLogger()).RunScript(envFile)
			return nil
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "env file to load")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "disable colored output")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
