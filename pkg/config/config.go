package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint   = "https://huggingface.co"
	DefaultRevision   = "main"
	DefaultDatasetKey = "SHAPENET_DATASET_PATH"
	DefaultProjectKey = "DINO_PROJECT_PATH"
)

// Config holds all configuration options for ckpthub
type Config struct {
	// Environment keys checked by the path verifier
	Paths PathsConfig `yaml:"paths" json:"paths" toml:"paths"`

	// Hosted hub connection
	Hub HubConfig `yaml:"hub" json:"hub" toml:"hub"`

	// Checkpoint upload behaviour
	Upload UploadConfig `yaml:"upload" json:"upload" toml:"upload"`

	Logging LoggingConfig `yaml:"logging" json:"logging" toml:"logging"`

	UI UIConfig `yaml:"ui" json:"ui" toml:"ui"`
}

// PathsConfig names the environment file and the two required path keys
type PathsConfig struct {
	EnvFile      string `yaml:"env_file" json:"env_file" toml:"env_file"`
	DatasetKey   string `yaml:"dataset_key" json:"dataset_key" toml:"dataset_key"`
	DatasetLabel string `yaml:"dataset_label" json:"dataset_label" toml:"dataset_label"`
	ProjectKey   string `yaml:"project_key" json:"project_key" toml:"project_key"`
	ProjectLabel string `yaml:"project_label" json:"project_label" toml:"project_label"`
}

// HubConfig holds hosted hub settings
type HubConfig struct {
	Endpoint          string        `yaml:"endpoint" json:"endpoint" toml:"endpoint"`
	Token             string        `yaml:"token" json:"token" toml:"token"`
	Account           string        `yaml:"account" json:"account" toml:"account"`
	RepoType          string        `yaml:"repo_type" json:"repo_type" toml:"repo_type"`
	Private           bool          `yaml:"private" json:"private" toml:"private"`
	Timeout           time.Duration `yaml:"timeout" json:"timeout" toml:"timeout"`
	MaxRetries        int           `yaml:"max_retries" json:"max_retries" toml:"max_retries"`
	RequestsPerMinute int           `yaml:"requests_per_minute" json:"requests_per_minute" toml:"requests_per_minute"`
}

// UploadConfig holds upload defaults
type UploadConfig struct {
	Revision       string   `yaml:"revision" json:"revision" toml:"revision"`
	CommitMessage  string   `yaml:"commit_message" json:"commit_message" toml:"commit_message"`
	IgnorePatterns []string `yaml:"ignore_patterns" json:"ignore_patterns" toml:"ignore_patterns"`
	AllowPatterns  []string `yaml:"allow_patterns" json:"allow_patterns" toml:"allow_patterns"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level" toml:"level"`
	Format  string `yaml:"format" json:"format" toml:"format"`
	File    string `yaml:"file" json:"file" toml:"file"`
	NoColor bool   `yaml:"no_color" json:"no_color" toml:"no_color"`
}

// UIConfig holds console output preferences
type UIConfig struct {
	ColorEnabled         bool `yaml:"color_enabled" json:"color_enabled" toml:"color_enabled"`
	ProgressEnabled      bool `yaml:"progress_enabled" json:"progress_enabled" toml:"progress_enabled"`
	NotificationsEnabled bool `yaml:"notifications_enabled" json:"notifications_enabled" toml:"notifications_enabled"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			EnvFile:      ".env",
			DatasetKey:   DefaultDatasetKey,
			DatasetLabel: "ShapeNet",
			ProjectKey:   DefaultProjectKey,
			ProjectLabel: "DINO project",
		},
		Hub: HubConfig{
			Endpoint:   DefaultEndpoint,
			RepoType:   "model",
			Timeout:    0, // no timeout; uploads of large checkpoints can take hours
			MaxRetries: 3,
		},
		Upload: UploadConfig{
			Revision:       DefaultRevision,
			CommitMessage:  "Upload folder using ckpthub",
			IgnorePatterns: []string{},
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "console",
		},
		UI: UIConfig{
			ColorEnabled:    true,
			ProgressEnabled: true,
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if envFile := os.Getenv("CKPTHUB_ENV_FILE"); envFile != "" {
		c.Paths.EnvFile = envFile
	}

	if endpoint := os.Getenv("HF_ENDPOINT"); endpoint != "" {
		c.Hub.Endpoint = endpoint
	}
	if token := os.Getenv("HF_TOKEN"); token != "" {
		c.Hub.Token = token
	} else if token := os.Getenv("HUGGING_FACE_HUB_TOKEN"); token != "" {
		c.Hub.Token = token
	}
	if repoType := os.Getenv("CKPTHUB_REPO_TYPE"); repoType != "" {
		c.Hub.RepoType = repoType
	}
	if private := os.Getenv("CKPTHUB_PRIVATE"); private != "" {
		val, err := strconv.ParseBool(private)
		if err != nil {
			return fmt.Errorf("invalid CKPTHUB_PRIVATE value %q: %w", private, err)
		}
		c.Hub.Private = val
	}
	if retries := os.Getenv("CKPTHUB_MAX_RETRIES"); retries != "" {
		val, err := strconv.Atoi(retries)
		if err != nil {
			return fmt.Errorf("invalid CKPTHUB_MAX_RETRIES value %q: %w", retries, err)
		}
		c.Hub.MaxRetries = val
	}

	if revision := os.Getenv("CKPTHUB_REVISION"); revision != "" {
		c.Upload.Revision = revision
	}
	if patterns := os.Getenv("CKPTHUB_IGNORE_PATTERNS"); patterns != "" {
		c.Upload.IgnorePatterns = splitList(patterns)
	}

	if logLevel := os.Getenv("CKPTHUB_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		c.UI.ColorEnabled = false
		c.Logging.NoColor = true
	}

	return nil
}

// LoadFromFile loads configuration from a YAML or TOML file. The format is
// picked from the extension; anything other than .toml is read as YAML.
func (c *Config) LoadFromFile(path string) error {
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if _, err := toml.Decode(string(data), c); err != nil {
			return fmt.Errorf("failed to parse config file: %w", err)
		}
		return nil
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// findConfigFile searches for a config file in standard locations
func (c *Config) findConfigFile() string {
	home, _ := os.UserHomeDir()
	locations := []string{
		".ckpthub.yaml",
		".ckpthub.yml",
		".ckpthub.toml",
	}
	if home != "" {
		locations = append(locations,
			filepath.Join(home, ".config", "ckpthub", "config.yaml"),
			filepath.Join(home, ".config", "ckpthub", "config.toml"),
			filepath.Join(home, ".ckpthub.yaml"),
		)
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}
	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Paths.DatasetKey == "" || c.Paths.ProjectKey == "" {
		errs = append(errs, errors.New("both path environment keys are required"))
	}
	if c.Paths.DatasetKey != "" && c.Paths.DatasetKey == c.Paths.ProjectKey {
		errs = append(errs, errors.New("dataset and project keys must differ"))
	}

	if c.Hub.Endpoint == "" {
		errs = append(errs, errors.New("hub endpoint is required"))
	} else if !strings.HasPrefix(c.Hub.Endpoint, "http://") && !strings.HasPrefix(c.Hub.Endpoint, "https://") {
		errs = append(errs, fmt.Errorf("hub endpoint must be an http(s) URL: %s", c.Hub.Endpoint))
	}
	switch strings.ToLower(c.Hub.RepoType) {
	case "model", "dataset":
	default:
		errs = append(errs, fmt.Errorf("invalid repo type: %s", c.Hub.RepoType))
	}
	if c.Hub.Timeout < 0 {
		errs = append(errs, errors.New("hub timeout cannot be negative"))
	}
	if c.Hub.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}
	if c.Hub.RequestsPerMinute < 0 {
		errs = append(errs, errors.New("requests per minute cannot be negative"))
	}

	if c.Upload.Revision == "" {
		errs = append(errs, errors.New("upload revision is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "warning": true, "error": true, "disabled": true, "off": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, fmt.Errorf("invalid log level: %s", c.Logging.Level))
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "console", "json":
	default:
		errs = append(errs, fmt.Errorf("invalid log format: %s", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Sanitized returns a copy with the hub token masked, suitable for display
func (c *Config) Sanitized() *Config {
	cp := *c
	if cp.Hub.Token != "" {
		cp.Hub.Token = "********"
	}
	cp.Upload.IgnorePatterns = append([]string(nil), c.Upload.IgnorePatterns...)
	cp.Upload.AllowPatterns = append([]string(nil), c.Upload.AllowPatterns...)
	return &cp
}

// MergeCommandLineFlags merges command line flags into the configuration.
// Only keys present in the map are applied.
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if endpoint, ok := flags["endpoint"].(string); ok && endpoint != "" {
		c.Hub.Endpoint = endpoint
	}
	if token, ok := flags["token"].(string); ok && token != "" {
		c.Hub.Token = token
	}
	if account, ok := flags["account"].(string); ok && account != "" {
		c.Hub.Account = account
	}
	if repoType, ok := flags["repo-type"].(string); ok && repoType != "" {
		c.Hub.RepoType = repoType
	}
	if private, ok := flags["private"].(bool); ok {
		c.Hub.Private = private
	}
	if revision, ok := flags["revision"].(string); ok && revision != "" {
		c.Upload.Revision = revision
	}
	if message, ok := flags["commit-message"].(string); ok && message != "" {
		c.Upload.CommitMessage = message
	}
	if patterns, ok := flags["ignore"].([]string); ok && len(patterns) > 0 {
		c.Upload.IgnorePatterns = append(c.Upload.IgnorePatterns, patterns...)
	}
	if patterns, ok := flags["allow"].([]string); ok && len(patterns) > 0 {
		c.Upload.AllowPatterns = append(c.Upload.AllowPatterns, patterns...)
	}
	if envFile, ok := flags["env-file"].(string); ok && envFile != "" {
		c.Paths.EnvFile = envFile
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
	if noColor, ok := flags["no-color"].(bool); ok && noColor {
		c.UI.ColorEnabled = false
		c.Logging.NoColor = true
	}
	if notify, ok := flags["notify"].(bool); ok {
		c.UI.NotificationsEnabled = notify
	}
}

// Load loads configuration from all sources with proper precedence.
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	cfg := DefaultConfig()

	if err := cfg.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	envFile := cfg.Paths.EnvFile
	if f, ok := flags["env-file"].(string); ok && f != "" {
		envFile = f
	}
	// .env files are optional; existing variables are never overwritten
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	if err := cfg.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg.MergeCommandLineFlags(flags)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
