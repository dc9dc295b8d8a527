// Package config loads capreport configuration: the tool config in
// .capreport/config.yaml and report definition files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the name of the capreport configuration file
const ConfigFileName = "config.yaml"

// ConfigDirName is the name of the capreport configuration directory
const ConfigDirName = ".capreport"

// Config holds all capreport configuration
type Config struct {
	Platform PlatformConfig `yaml:"platform"`
	Output   OutputConfig   `yaml:"output"`
	Log      LogConfig      `yaml:"log"`
}

// PlatformConfig holds the platform API connection settings. The
// password is never stored in the file; it is read from the
// environment variable named by password_env.
type PlatformConfig struct {
	Host        string        `yaml:"host"`
	Username    string        `yaml:"username"`
	PasswordEnv string        `yaml:"password_env"`
	Insecure    bool          `yaml:"insecure"`
	Timeout     time.Duration `yaml:"timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}

// OutputConfig holds output formatting defaults
type OutputConfig struct {
	DefaultFormat string `yaml:"default_format"`
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string `yaml:"level"`
}

// ErrConfigNotFound is returned when no config file can be found
var ErrConfigNotFound = errors.New("config file not found")

// ErrInvalidConfig is returned when config validation fails
var ErrInvalidConfig = errors.New("invalid configuration")

// Load reads config from .capreport/config.yaml, searching from
// workDir and walking up the directory tree. If no config is found,
// returns defaults.
func Load(workDir string) (*Config, error) {
	configDir, err := FindConfigDir(workDir)
	if err != nil {
		return DefaultConfig(), nil
	}
	return LoadFromPath(filepath.Join(configDir, ConfigFileName))
}

// LoadFromPath reads config from a specific path, merges it with
// defaults, and validates the result.
func LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	loaded := &Config{}
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	merged := Merge(loaded, DefaultConfig())

	if err := Validate(merged); err != nil {
		return nil, err
	}
	return merged, nil
}

// FindConfigDir locates the .capreport directory by walking up from
// startDir.
func FindConfigDir(startDir string) (string, error) {
	absDir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	currentDir := absDir
	for {
		configDir := filepath.Join(currentDir, ConfigDirName)
		info, err := os.Stat(configDir)
		if err == nil && info.IsDir() {
			return configDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrConfigNotFound
		}
		currentDir = parentDir
	}
}

// EnsureConfigDir creates the .capreport directory if it doesn't
// exist and returns its path.
func EnsureConfigDir(workDir string) (string, error) {
	absDir, err := filepath.Abs(workDir)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	configDir := filepath.Join(absDir, ConfigDirName)

	info, err := os.Stat(configDir)
	if err == nil {
		if info.IsDir() {
			return configDir, nil
		}
		return "", fmt.Errorf("%s exists but is not a directory", configDir)
	}

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", fmt.Errorf("creating config directory: %w", err)
	}
	return configDir, nil
}

// Validate checks that config values are valid.
func Validate(cfg *Config) error {
	switch cfg.Output.DefaultFormat {
	case "table", "csv", "json", "yaml":
	default:
		return fmt.Errorf("%w: default_format must be one of table, csv, json, yaml, got %q",
			ErrInvalidConfig, cfg.Output.DefaultFormat)
	}

	if cfg.Platform.MaxRetries < 0 {
		return fmt.Errorf("%w: max_retries must be non-negative, got %d",
			ErrInvalidConfig, cfg.Platform.MaxRetries)
	}

	if cfg.Platform.Timeout < 0 {
		return fmt.Errorf("%w: timeout must be non-negative, got %s",
			ErrInvalidConfig, cfg.Platform.Timeout)
	}

	return nil
}

// SaveDefault writes the default configuration to
// .capreport/config.yaml in workDir.
func SaveDefault(workDir string) (string, error) {
	configDir, err := EnsureConfigDir(workDir)
	if err != nil {
		return "", err
	}

	configPath := filepath.Join(configDir, ConfigFileName)

	if _, err := os.Stat(configPath); err == nil {
		return "", fmt.Errorf("config file already exists: %s", configPath)
	}

	cfg := DefaultConfig()
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshaling config: %w", err)
	}

	header := "# capreport configuration\n# Set the platform password via the environment variable named by password_env.\n\n"
	data = append([]byte(header), data...)

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return configPath, nil
}
