package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

const (
	// ConfigFileName is the name of the config file
	ConfigFileName = "config.yaml"

	// DefaultConfigDir is the default directory for replate configuration
	// This will be ~/.config/replate/ on Unix systems
	DefaultConfigDir = ".config/replate"

	// DefaultAddr is the listen address of replate serve
	DefaultAddr = "localhost:8080"
)

var validate = validator.New()

// Config represents the replate CLI configuration
type Config struct {
	// DefaultData is a JSON or YAML file used when --data is not given
	DefaultData string `yaml:"default_data,omitempty" validate:"omitempty,filepath"`

	// Addr is the listen address of the preview server
	Addr string `yaml:"addr,omitempty" validate:"required,hostname_port"`

	// Minify collapses template whitespace before parsing
	Minify bool `yaml:"minify,omitempty"`

	// Context is the element templates are parsed inside of
	Context string `yaml:"context,omitempty" validate:"omitempty,alphanum,lowercase"`
}

// DefaultConfig returns a new Config with default values
func DefaultConfig() *Config {
	return &Config{
		Addr: DefaultAddr,
	}
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(homeDir, DefaultConfigDir, ConfigFileName), nil
}

// LoadConfig loads the configuration from the default config file
// If the file doesn't exist, returns a default config
func LoadConfig() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(configPath)
}

// LoadFile loads and validates the configuration at path
// If the file doesn't exist, returns a default config
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults for missing fields
	if config.Addr == "" {
		config.Addr = DefaultAddr
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks field values against their constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("field %s fails %q check (value %v)", first.Field(), first.Tag(), first.Value())
		}
		return err
	}
	return nil
}
