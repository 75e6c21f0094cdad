// Package cli provides CLI commands using Bubble Tea TUI.
package cli

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/arbor-browser/arbor/internal/app/tabtree"
	"github.com/arbor-browser/arbor/internal/application/port"
	"github.com/arbor-browser/arbor/internal/cli/styles"
	"github.com/arbor-browser/arbor/internal/config"
	"github.com/arbor-browser/arbor/internal/domain/build"
	"github.com/arbor-browser/arbor/internal/infrastructure/host"
	"github.com/arbor-browser/arbor/internal/infrastructure/persistence/sqlite"
	"github.com/arbor-browser/arbor/internal/logging"
)

// App holds CLI dependencies: configuration, the state store, the host
// adapter, and the engine built over them.
type App struct {
	Config    *config.Config
	Theme     *styles.Theme
	BuildInfo build.Info
	Engine    *tabtree.Engine
	Host      port.Host
	Store     *sqlite.StateStore

	ctx context.Context
}

// NewApp wires the application. With demo set, the engine is synced from a
// seeded in-memory host; otherwise it starts from an empty one. A browser
// transport would slot in behind port.Host without touching anything else.
func NewApp(demo bool) (*App, error) {
	if err := config.Init(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cfg := config.Get()

	logger := logging.New(logging.Config{
		Level:      logging.ParseLevel(cfg.Logging.Level),
		Format:     cfg.Logging.Format,
		TimeFormat: "15:04:05",
	})
	ctx := logging.WithContext(context.Background(), logger)

	store, err := sqlite.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open state store: %w", err)
	}

	var h *host.MemoryHost
	if demo {
		h = host.NewDemoHost()
	} else {
		h = host.NewMemoryHost()
	}

	engine := tabtree.NewEngine(h, store, cfg.Engine)
	if err := engine.SyncAllTabs(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("initial sync: %w", err)
	}

	// Remember the last configuration that passed validation.
	if raw, err := json.Marshal(cfg); err == nil {
		if err := store.SaveEngineConfig(ctx, raw); err != nil {
			logger.Warn().Err(err).Msg("failed to store last-good config")
		}
	}

	// Hot-reload engine settings when the config file changes.
	config.OnConfigChange(func(c *config.Config) {
		engine.UpdateConfig(c.Engine)
	})
	if err := config.Watch(); err != nil {
		logger.Warn().Err(err).Msg("config watch unavailable")
	}

	return &App{
		Config: cfg,
		Theme:  styles.NewTheme(cfg),
		Engine: engine,
		Host:   h,
		Store:  store,
		ctx:    ctx,
	}, nil
}

// Context returns the app context carrying the logger.
func (a *App) Context() context.Context {
	return a.ctx
}

// Close releases the app's resources.
func (a *App) Close() error {
	if a.Store != nil {
		return a.Store.Close()
	}
	return nil
}
