package config

import (
	"fmt"
	"time"
)

// validateConfig checks configuration values that normalization cannot fix.
func validateConfig(config *Config) error {
	switch config.Logging.Level {
	case "", "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unknown level %q", config.Logging.Level)
	}

	if config.Engine.UndoWindow > time.Hour {
		return fmt.Errorf("engine.undo_window: %s exceeds the one hour maximum", config.Engine.UndoWindow)
	}

	switch config.Panel.Theme {
	case "", "auto", "light", "dark":
	default:
		return fmt.Errorf("panel.theme: unknown theme %q", config.Panel.Theme)
	}

	return nil
}
