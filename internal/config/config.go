// Package config provides configuration management for the markdown repair tools.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"markdown-repair/internal/logger"
	"markdown-repair/internal/types"
)

const (
	// DefaultConfigFileName is the default configuration file name
	DefaultConfigFileName = "config.json"
	// EnvDefaultLanguage overrides default_language
	EnvDefaultLanguage = "MDREPAIR_DEFAULT_LANGUAGE"
	// EnvCloseOnNewline overrides close_on_newline
	EnvCloseOnNewline = "MDREPAIR_CLOSE_ON_NEWLINE"
	// EnvLogLevel overrides log_level
	EnvLogLevel = "MDREPAIR_LOG_LEVEL"
	// DefaultLogLevel is the log level used when none is configured
	DefaultLogLevel = "info"
	// DefaultMode is the display mode used when none is configured
	DefaultMode = types.ModeStandard
)

// ConfigManager manages application configuration
type ConfigManager struct {
	configPath string
	config     *types.Config
}

// NewConfigManager creates a new ConfigManager with the specified config path.
// If configPath is empty, it uses the default path in user's home directory.
func NewConfigManager(configPath string) (*ConfigManager, error) {
	if configPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, types.NewAppError(types.ErrConfig, "failed to get user home directory", err)
		}
		configPath = filepath.Join(homeDir, ".config", "markdown-repair", DefaultConfigFileName)
	}

	return &ConfigManager{
		configPath: configPath,
		config:     Default(),
	}, nil
}

// Default returns a Config with default values
func Default() *types.Config {
	return &types.Config{
		KeepFenceChar:  true,
		CloseOnNewline: true, // 默认行尾闭合
		Mode:           DefaultMode,
		LogLevel:       DefaultLogLevel,
	}
}

// Load loads configuration from the config file and applies environment
// overrides. A missing file means defaults; fields absent from the file keep
// their defaults.
func (m *ConfigManager) Load() error {
	logger.Debug("loading configuration", logger.String("path", m.configPath))

	cfg := Default()
	data, err := os.ReadFile(m.configPath)
	switch {
	case os.IsNotExist(err):
		logger.Info("config file not found, using defaults", logger.String("path", m.configPath))
	case err != nil:
		return types.NewAppError(types.ErrConfig, "failed to read config file", err)
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return types.NewAppErrorWithDetails(types.ErrConfig, "invalid config file format", m.configPath, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return err
	}

	// Apply defaults for empty fields
	if cfg.Mode == "" {
		cfg.Mode = DefaultMode
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	logger.Info("configuration loaded",
		logger.String("path", m.configPath),
		logger.String("mode", string(cfg.Mode)),
		logger.Bool("closeOnNewline", cfg.CloseOnNewline))
	m.config = cfg
	return nil
}

func applyEnv(cfg *types.Config) error {
	if v := os.Getenv(EnvDefaultLanguage); v != "" {
		cfg.DefaultLanguage = v
	}
	if v := os.Getenv(EnvCloseOnNewline); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return types.NewAppErrorWithDetails(types.ErrConfig, "invalid boolean in "+EnvCloseOnNewline, v, err)
		}
		cfg.CloseOnNewline = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	return nil
}

// Validate checks the enumerated fields of cfg.
func Validate(cfg *types.Config) error {
	if !cfg.Mode.Valid() {
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown mode", string(cfg.Mode), nil)
	}
	if _, err := logger.ParseLevel(cfg.LogLevel); err != nil {
		return types.NewAppErrorWithDetails(types.ErrConfig, "unknown log level", cfg.LogLevel, err)
	}
	return nil
}

// Save saves the current configuration to the config file.
func (m *ConfigManager) Save() error {
	dir := filepath.Dir(m.configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to create config directory", err)
	}

	data, err := json.MarshalIndent(m.config, "", "  ")
	if err != nil {
		return types.NewAppError(types.ErrConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(m.configPath, data, 0644); err != nil {
		return types.NewAppError(types.ErrConfig, "failed to write config file", err)
	}

	logger.Info("configuration saved", logger.String("path", m.configPath))
	return nil
}

// GetConfig returns the current configuration.
func (m *ConfigManager) GetConfig() *types.Config {
	if m.config == nil {
		return Default()
	}
	return m.config
}

// SetConfig sets the entire configuration.
func (m *ConfigManager) SetConfig(config *types.Config) {
	m.config = config
}

// GetConfigPath returns the path to the config file.
func (m *ConfigManager) GetConfigPath() string {
	return m.configPath
}

// LoggerConfig translates the logging fields into a logger configuration.
// An empty log_file disables file output.
func (m *ConfigManager) LoggerConfig() *logger.Config {
	cfg := m.GetConfig()
	lc := logger.DefaultConfig()
	lc.LogFilePath = strings.TrimSpace(cfg.LogFile)
	if level, err := logger.ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	return lc
}
