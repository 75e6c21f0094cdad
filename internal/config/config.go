// Package config provides configuration management for arbor with Viper integration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// File permission constants
const (
	dirPerm  = 0755 // Standard directory permissions (rwxr-xr-x)
	filePerm = 0644 // Standard file permissions (rw-r--r--)
)

// Config represents the complete configuration for arbor.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database" json:"database"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging" json:"logging"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine" json:"engine"`
	Panel    PanelConfig    `mapstructure:"panel" yaml:"panel" json:"panel"`
}

// DatabaseConfig holds state-database configuration.
type DatabaseConfig struct {
	Path         string        `mapstructure:"path" yaml:"path" json:"path"`
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout" json:"query_timeout"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// EngineConfig parameterizes the tab-tree engine: close confirmation,
// pinned-tab protection, the undo window, and search weights. It is injected
// into the engine as a value object; the engine never reads storage directly.
type EngineConfig struct {
	ConfirmEnabled   bool          `mapstructure:"confirm_enabled" yaml:"confirm_enabled" json:"confirm_enabled"`
	ConfirmThreshold int           `mapstructure:"confirm_threshold" yaml:"confirm_threshold" json:"confirm_threshold"`
	ProtectPinned    bool          `mapstructure:"protect_pinned" yaml:"protect_pinned" json:"protect_pinned"`
	UndoWindow       time.Duration `mapstructure:"undo_window" yaml:"undo_window" json:"undo_window"`
	TitleWeight      int           `mapstructure:"title_weight" yaml:"title_weight" json:"title_weight"`
	URLWeight        int           `mapstructure:"url_weight" yaml:"url_weight" json:"url_weight"`
}

// PanelConfig holds UI preferences persisted for the side panel.
type PanelConfig struct {
	Theme       string `mapstructure:"theme" yaml:"theme" json:"theme"`
	Width       int    `mapstructure:"width" yaml:"width" json:"width"`
	ShowFavicon bool   `mapstructure:"show_favicon" yaml:"show_favicon" json:"show_favicon"`
}

// Manager handles configuration loading, watching, and reloading.
type Manager struct {
	config    *Config
	viper     *viper.Viper
	mu        sync.RWMutex
	callbacks []func(*Config)
	watching  bool
}

// NewManager creates a new configuration manager.
func NewManager() (*Manager, error) {
	v := viper.New()

	// Configure Viper - supports yaml, json, toml automatically
	v.SetConfigName("config")

	configDir, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}
	v.AddConfigPath(configDir)
	v.AddConfigPath(".") // Current directory for development

	v.SetEnvPrefix("ARBOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindings := map[string]string{
		"database.path":            "DATABASE_PATH",
		"database.query_timeout":   "DATABASE_QUERY_TIMEOUT",
		"logging.level":            "LOGGING_LEVEL",
		"logging.format":           "LOGGING_FORMAT",
		"engine.confirm_enabled":   "ENGINE_CONFIRM_ENABLED",
		"engine.confirm_threshold": "ENGINE_CONFIRM_THRESHOLD",
		"engine.protect_pinned":    "ENGINE_PROTECT_PINNED",
		"engine.undo_window":       "ENGINE_UNDO_WINDOW",
		"panel.theme":              "PANEL_THEME",
		"panel.width":              "PANEL_WIDTH",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, "ARBOR_"+env); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable %s: %w", env, err)
		}
	}

	return &Manager{
		viper:     v,
		callbacks: make([]func(*Config), 0),
	}, nil
}

// Load loads the configuration from file and environment variables.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := EnsureDirectories(); err != nil {
		return fmt.Errorf("failed to ensure directories: %w", err)
	}

	m.setDefaults()

	if err := m.viper.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if errors.As(err, &configFileNotFoundError) {
			// Config file not found, create default one
			if err := m.createDefaultConfig(); err != nil {
				return fmt.Errorf("failed to create default config: %w", err)
			}
		} else {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	config, err := m.unmarshalLocked()
	if err != nil {
		return err
	}

	m.config = config
	return nil
}

// unmarshalLocked decodes, normalizes, and validates the current viper state.
// Must be called with m.mu held for write.
func (m *Manager) unmarshalLocked() (*Config, error) {
	config := &Config{}
	if err := m.viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if config.Database.Path == "" {
		dbPath, err := GetDatabaseFile()
		if err != nil {
			return nil, fmt.Errorf("failed to get database path: %w", err)
		}
		config.Database.Path = dbPath
	}

	normalizeConfig(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Get returns the current configuration (thread-safe).
func (m *Manager) Get() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Return a copy to prevent external modification
	configCopy := *m.config
	return &configCopy
}

// Watch starts watching the config file for changes and reloads automatically.
func (m *Manager) Watch() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.watching {
		return nil // Already watching
	}

	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(_ fsnotify.Event) {
		m.mu.Lock()

		config, err := m.unmarshalLocked()
		if err != nil {
			m.mu.Unlock()
			fmt.Fprintf(os.Stderr, "Warning: failed to reload config: %v\n", err)
			return
		}
		m.config = config

		callbacks := make([]func(*Config), len(m.callbacks))
		copy(callbacks, m.callbacks)
		m.mu.Unlock()

		for _, callback := range callbacks {
			callback(config)
		}
	})

	m.watching = true
	return nil
}

// OnConfigChange registers a callback function to be called when config changes.
func (m *Manager) OnConfigChange(callback func(*Config)) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callbacks = append(m.callbacks, callback)
}

// setDefaults sets default configuration values in Viper.
func (m *Manager) setDefaults() {
	defaults := DefaultConfig()

	m.viper.SetDefault("database.query_timeout", defaults.Database.QueryTimeout)

	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)

	m.viper.SetDefault("engine.confirm_enabled", defaults.Engine.ConfirmEnabled)
	m.viper.SetDefault("engine.confirm_threshold", defaults.Engine.ConfirmThreshold)
	m.viper.SetDefault("engine.protect_pinned", defaults.Engine.ProtectPinned)
	m.viper.SetDefault("engine.undo_window", defaults.Engine.UndoWindow)
	m.viper.SetDefault("engine.title_weight", defaults.Engine.TitleWeight)
	m.viper.SetDefault("engine.url_weight", defaults.Engine.URLWeight)

	m.viper.SetDefault("panel.theme", defaults.Panel.Theme)
	m.viper.SetDefault("panel.width", defaults.Panel.Width)
	m.viper.SetDefault("panel.show_favicon", defaults.Panel.ShowFavicon)
}

// createDefaultConfig creates a default configuration file.
func (m *Manager) createDefaultConfig() error {
	configFile, err := GetConfigFile()
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(configFile), dirPerm); err != nil {
		return err
	}

	defaultConfig := DefaultConfig()

	configData, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(configFile, configData, filePerm); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigFile returns the path to the configuration file being used.
func (m *Manager) GetConfigFile() string {
	return m.viper.ConfigFileUsed()
}

// Global configuration manager instance
var globalManager *Manager
var globalManagerOnce sync.Once

// Init initializes the global configuration manager.
func Init() error {
	var err error
	globalManagerOnce.Do(func() {
		globalManager, err = NewManager()
		if err != nil {
			return
		}
		err = globalManager.Load()
	})
	return err
}

// Get returns the global configuration.
func Get() *Config {
	if globalManager == nil {
		// Return defaults if not initialized
		return DefaultConfig()
	}
	return globalManager.Get()
}

// Watch starts watching the global configuration for changes.
func Watch() error {
	if globalManager == nil {
		return fmt.Errorf("configuration not initialized")
	}
	return globalManager.Watch()
}

// OnConfigChange registers a callback for global configuration changes.
func OnConfigChange(callback func(*Config)) {
	if globalManager == nil {
		return
	}
	globalManager.OnConfigChange(callback)
}
