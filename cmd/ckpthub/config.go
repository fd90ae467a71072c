package main

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"ckpthub/pkg/config"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage ckpthub configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables
  - .env file
  - Configuration file (YAML or TOML)
  - Default values (lowest priority)`,
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file is created as '.ckpthub.yaml' in the current directory unless a
different path is given with --config. A path ending in .toml produces a
TOML file.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the effective configuration after merging all sources.

The hub token is masked.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)
	configCmd.AddCommand(validateCmd)
}

const exampleConfigYAML = `# ckpthub configuration file
#
# Environment variables override these values:
#   HF_TOKEN, HF_ENDPOINT, CKPTHUB_REVISION, CKPTHUB_LOG_LEVEL, ...

# Environment keys checked by 'ckpthub paths'
paths:
  env_file: ".env"
  dataset_key: "SHAPENET_DATASET_PATH"
  dataset_label: "ShapeNet"
  project_key: "DINO_PROJECT_PATH"
  project_label: "DINO project"

hub:
  endpoint: "https://huggingface.co"
  # Prefer 'ckpthub auth login' or HF_TOKEN over a token in this file
  token: ""
  # Name of a stored credential to use
  account: ""
  # model or dataset
  repo_type: "model"
  private: false
  # Per request timeout, 0 disables it
  timeout: 0s
  max_retries: 3
  # 0 disables client side rate limiting
  requests_per_minute: 0

upload:
  revision: "main"
  commit_message: "Upload folder using ckpthub"
  ignore_patterns:
    - "*.tmp"
    - "logs/"
  allow_patterns: []

logging:
  # debug, info, warn, error
  level: "warn"
  # console or json
  format: "console"
  file: ""

ui:
  color_enabled: true
  progress_enabled: true
  notifications_enabled: false
`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configPath := configFile
	if configPath == "" {
		configPath = ".ckpthub.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		return fmt.Errorf("configuration file already exists: %s", configPath)
	}

	data := []byte(exampleConfigYAML)
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		example := config.DefaultConfig()
		example.Upload.IgnorePatterns = []string{"*.tmp", "logs/"}

		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(example); err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		data = buf.Bytes()
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	printer := newPrinter(nil)
	printer.Success("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'ckpthub auth login' to store a hub token")
	fmt.Println("  2. Adjust the ignore patterns for your checkpoints")
	fmt.Printf("  3. Run 'ckpthub config validate --config %s'\n", configPath)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg.Sanitized())
	if err != nil {
		return fmt.Errorf("failed to marshal configuration: %w", err)
	}

	printer := newPrinter(cfg)
	printer.Highlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(nil)
	if err != nil {
		fmt.Println("❌ Configuration is invalid:")
		cause := err
		if inner := errors.Unwrap(err); inner != nil {
			cause = inner
		}
		// errors.Join separates with newlines
		for _, line := range strings.Split(cause.Error(), "\n") {
			fmt.Printf("  • %s\n", line)
		}
		return &exitError{err: err}
	}

	newPrinter(cfg).Success("Configuration is valid")
	return nil
}
