package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/yiblet/haste/internal/logger"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDBFile      = "haste.db"
	DefaultBlobsDir    = "blobs"
	DefaultSearchLimit = 20
	DefaultLogLevel    = "warn"

	MaxHistoryLimit = 100000
	MaxSearchLimit  = 1000
)

// Config represents the haste configuration
type Config struct {
	DBPath       string `yaml:"db_path,omitempty"`
	BlobsDir     string `yaml:"blobs_dir,omitempty"`
	HistoryLimit int    `yaml:"history_limit"`
	SearchLimit  int    `yaml:"search_limit"`
	LogLevel     string `yaml:"log_level"`
	LogPretty    bool   `yaml:"log_pretty"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		HistoryLimit: 0,
		SearchLimit:  DefaultSearchLimit,
		LogLevel:     DefaultLogLevel,
		LogPretty:    false,
	}
}

// ConfigManager manages configuration persistence
type ConfigManager struct {
	configPath string
}

// NewConfigManager creates a config manager for ~/.config/haste/config.yaml
func NewConfigManager() (*ConfigManager, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	configPath := filepath.Join(homeDir, ".config", "haste", "config.yaml")

	return &ConfigManager{
		configPath: configPath,
	}, nil
}

// NewConfigManagerWithPath creates a config manager with custom config path
func NewConfigManagerWithPath(configPath string) *ConfigManager {
	return &ConfigManager{
		configPath: configPath,
	}
}

// Load reads the configuration from file, or returns default if file doesn't exist
func (cm *ConfigManager) Load() (*Config, error) {
	if _, err := os.Stat(cm.configPath); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(cm.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cm.validateAndSetDefaults(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Save writes the configuration to file
func (cm *ConfigManager) Save(config *Config) error {
	if err := cm.validateAndSetDefaults(config); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	configDir := filepath.Dir(cm.configPath)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(cm.configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// validateAndSetDefaults validates configuration and sets defaults for missing fields
func (cm *ConfigManager) validateAndSetDefaults(config *Config) error {
	if config.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	if config.HistoryLimit > MaxHistoryLimit {
		return fmt.Errorf("history_limit cannot exceed %d items", MaxHistoryLimit)
	}

	if config.SearchLimit == 0 {
		config.SearchLimit = DefaultSearchLimit
	}
	if config.SearchLimit < 0 || config.SearchLimit > MaxSearchLimit {
		return fmt.Errorf("search_limit must be between 1 and %d", MaxSearchLimit)
	}

	if config.LogLevel == "" {
		config.LogLevel = DefaultLogLevel
	}
	if !logger.ValidLevel(config.LogLevel) {
		return fmt.Errorf("log_level must be one of debug, info, warn, error")
	}

	return nil
}

// GetConfigPath returns the path to the config file
func (cm *ConfigManager) GetConfigPath() string {
	return cm.configPath
}

// ResolvePaths returns the database file and blobs directory for config.
// Empty values use the defaults next to the config file; relative values
// are taken relative to the config directory.
func (cm *ConfigManager) ResolvePaths(config *Config) (dbPath, blobsDir string) {
	configDir := filepath.Dir(cm.configPath)
	resolve := func(value, fallback string) string {
		switch {
		case value == "":
			return filepath.Join(configDir, fallback)
		case filepath.IsAbs(value):
			return value
		default:
			return filepath.Join(configDir, value)
		}
	}
	return resolve(config.DBPath, DefaultDBFile), resolve(config.BlobsDir, DefaultBlobsDir)
}

// Update modifies a specific configuration value
func (cm *ConfigManager) Update(key, value string) error {
	config, err := cm.Load()
	if err != nil {
		return err
	}

	switch key {
	case "db-path":
		config.DBPath = value
	case "blobs-dir":
		config.BlobsDir = value
	case "history-limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid integer value for history-limit: %s", value)
		}
		config.HistoryLimit = n
	case "search-limit":
		n, err := strconv.Atoi(value)
		if err != nil || n == 0 {
			return fmt.Errorf("invalid value for search-limit: %s", value)
		}
		config.SearchLimit = n
	case "log-level":
		config.LogLevel = value
	case "log-pretty":
		switch value {
		case "true":
			config.LogPretty = true
		case "false":
			config.LogPretty = false
		default:
			return fmt.Errorf("invalid boolean value for log-pretty: %s (must be 'true' or 'false')", value)
		}
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	return cm.Save(config)
}

// Get returns the value for a specific configuration key
func (cm *ConfigManager) Get(key string) (string, error) {
	values, err := cm.List()
	if err != nil {
		return "", err
	}

	value, ok := values[key]
	if !ok {
		return "", fmt.Errorf("unknown configuration key: %s", key)
	}
	return value, nil
}

// List returns all configuration keys and values
func (cm *ConfigManager) List() (map[string]string, error) {
	config, err := cm.Load()
	if err != nil {
		return nil, err
	}

	orDefault := func(s string) string {
		if s == "" {
			return "[default]"
		}
		return s
	}

	return map[string]string{
		"db-path":       orDefault(config.DBPath),
		"blobs-dir":     orDefault(config.BlobsDir),
		"history-limit": strconv.Itoa(config.HistoryLimit),
		"search-limit":  strconv.Itoa(config.SearchLimit),
		"log-level":     config.LogLevel,
		"log-pretty":    strconv.FormatBool(config.LogPretty),
	}, nil
}
