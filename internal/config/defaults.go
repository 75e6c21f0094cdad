package config

import "time"

// DefaultConfig returns the default configuration values.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			QueryTimeout: 5 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Engine: EngineConfig{
			ConfirmEnabled:   true,
			ConfirmThreshold: 5,
			ProtectPinned:    true,
			UndoWindow:       5 * time.Second,
			TitleWeight:      10,
			URLWeight:        5,
		},
		Panel: PanelConfig{
			Theme:       "auto",
			Width:       280,
			ShowFavicon: true,
		},
	}
}

// normalizeConfig clamps values the engine cannot work with back to defaults.
func normalizeConfig(config *Config) {
	defaults := DefaultConfig()

	switch config.Logging.Format {
	case "json", "console":
	default:
		config.Logging.Format = defaults.Logging.Format
	}

	if config.Engine.ConfirmThreshold < 1 {
		config.Engine.ConfirmThreshold = defaults.Engine.ConfirmThreshold
	}
	if config.Engine.UndoWindow <= 0 {
		config.Engine.UndoWindow = defaults.Engine.UndoWindow
	}
	if config.Engine.TitleWeight <= 0 {
		config.Engine.TitleWeight = defaults.Engine.TitleWeight
	}
	if config.Engine.URLWeight <= 0 {
		config.Engine.URLWeight = defaults.Engine.URLWeight
	}
	if config.Panel.Width <= 0 {
		config.Panel.Width = defaults.Panel.Width
	}
}
