package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/specialistvlad/prototype/internal/ctxlog"
	"github.com/specialistvlad/prototype/internal/definition"
	"github.com/specialistvlad/prototype/internal/loader"
	"github.com/specialistvlad/prototype/internal/registry"
)

const scriptsBundleName = "scripts"

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	config *Config
}

// NewApp is the constructor for the main application. The computed document
// goes to outW and logs go to logW.
func NewApp(outW, logW io.Writer, cfg *Config) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, logW)
	logger.Debug("Logger configured successfully.")

	return &App{
		outW:   outW,
		logger: logger,
		config: cfg,
	}
}

// Load runs every configured script and bundle, then decodes the definitions
// on top of the result. Definitions win name collisions with scripts.
func (a *App) Load(ctx context.Context) (*registry.Registry, error) {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	variables := a.resolveBindings()
	bindings := make(map[string]any, len(variables))
	for name, value := range variables {
		bindings[name] = value
	}

	var bundles []loader.Bundle
	if len(a.config.Scripts) > 0 {
		bundles = append(bundles, loader.Bundle{
			Name:     scriptsBundleName,
			BasePath: a.config.BasePath,
			Scripts:  a.config.Scripts,
			Context:  bindings,
		})
	}
	for _, dir := range a.config.Bundles {
		bundles = append(bundles, loader.Bundle{
			Name:     filepath.Base(dir),
			BasePath: dir,
			Context:  bindings,
		})
	}

	reg, err := loader.Load(ctx, bundles, a.config.WorkerCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load scripts: %w", err)
	}
	a.logger.Debug("Scripts loaded.", "bundles", len(bundles), "prototypes", reg.Len())

	if a.config.DefinitionsPath != "" {
		defs, err := definition.LoadPath(ctx, a.config.DefinitionsPath,
			definition.WithVariables(variables),
			definition.WithPrototypes(reg),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to load definitions: %w", err)
		}
		reg.Merge(defs)
		a.logger.Debug("Definitions loaded.", "prototypes", defs.Len())
	}

	return reg, nil
}
