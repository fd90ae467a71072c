package main

import (
	"github.com/spf13/cobra"

	"ckpthub/pkg/envpaths"
	"ckpthub/pkg/logger"
)

var pathsEnvFile string

var pathsCmd = &cobra.Command{
	Use:   "paths",
	Short: "Verify the dataset and project paths",
	Long: `Load the .env file and check that SHAPENET_DATASET_PATH and
DINO_PROJECT_PATH are set. A path that is set but is not a directory only
produces a warning; a missing variable exits with status 1.`,
	Args: cobra.NoArgs,
	RunE: runPaths,
}

func init() {
	rootCmd.AddCommand(pathsCmd)
	pathsCmd.Flags().StringVar(&pathsEnvFile, "env-file", "", "env file to load (default .env)")
}

func runPaths(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(map[string]interface{}{
		"env-file": pathsEnvFile,
	})
	if err != nil {
		return err
	}

	v := envpaths.NewVerifier(newPrinter(cfg), logger.GetLogger())
	v.Dataset = envpaths.Requirement{Key: cfg.Paths.DatasetKey, Label: cfg.Paths.DatasetLabel}
	v.Project = envpaths.Requirement{Key: cfg.Paths.ProjectKey, Label: cfg.Paths.ProjectLabel}

	v.RunScript(cfg.Paths.EnvFile)
	return nil
}
