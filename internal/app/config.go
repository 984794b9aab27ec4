package app

import (
	"errors"
	"fmt"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	BasePath string   // search path root for Scripts
	Scripts  []string // run in order, in one environment
	Bundles  []string // directories, one environment each

	DefinitionsPath string // hcl file or directory

	// Bindings are installed as Lua globals and exposed to definitions as var.<name>.
	Bindings map[string]string
	// EnvPrefix selects environment variables added as bindings, prefix
	// stripped. Bindings take precedence.
	EnvPrefix string

	WorkerCount int
	LogFormat   string
	LogLevel    string
	Pretty      bool
}

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if len(cfg.Scripts) == 0 && len(cfg.Bundles) == 0 && cfg.DefinitionsPath == "" {
		return nil, errors.New("at least one script, bundle or definitions path is required")
	}
	if cfg.WorkerCount < 1 {
		return nil, fmt.Errorf("invalid worker count %d: must be at least 1", cfg.WorkerCount)
	}
	if _, ok := logLevels[cfg.LogLevel]; !ok {
		return nil, fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn', or 'error'", cfg.LogLevel)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", cfg.LogFormat)
	}
	return &cfg, nil
}
