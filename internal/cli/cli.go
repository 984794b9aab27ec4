package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/prototype/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// stringList is a repeatable string flag.
type stringList []string

func (s *stringList) String() string {
	return strings.Join(*s, ",")
}

func (s *stringList) Set(value string) error {
	*s = append(*s, value)
	return nil
}

// bindingMap is a repeatable key=value flag.
type bindingMap map[string]string

func (m bindingMap) String() string {
	pairs := make([]string, 0, len(m))
	for k, v := range m {
		pairs = append(pairs, k+"="+v)
	}
	return strings.Join(pairs, ",")
}

func (m bindingMap) Set(value string) error {
	key, val, ok := strings.Cut(value, "=")
	if !ok || key == "" {
		return fmt.Errorf("expected key=value, got %q", value)
	}
	m[key] = val
	return nil
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("prototype", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
prototype - Loads prototype definitions from Lua scripts and HCL files and
prints them as one JSON document.

Usage:
  prototype [options] [SCRIPT...]

Arguments:
  SCRIPT
    Module name of a Lua script, with or without .lua, resolved against -base.

Options:
`)
		flagSet.PrintDefaults()
	}

	var scripts, bundles stringList
	bindings := bindingMap{}

	baseFlag := flagSet.String("base", "", "Directory scripts are resolved against. Empty keeps the default Lua search path.")
	flagSet.Var(&scripts, "script", "Lua script to run. Repeatable.")
	flagSet.Var(&bundles, "bundle", "Directory of Lua scripts loaded in its own environment. Repeatable.")
	definitionsFlag := flagSet.String("definitions", "", "Path to an .hcl definition file or a directory of them.")
	flagSet.Var(bindings, "set", "Binding passed to scripts and definitions as key=value. Repeatable.")
	envPrefixFlag := flagSet.String("env-prefix", "", "Environment variables with this prefix become bindings, prefix stripped.")
	workersFlag := flagSet.Int("workers", 4, "Number of bundles loaded concurrently.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	prettyFlag := flagSet.Bool("pretty", false, "Indent the JSON output.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	scripts = append(scripts, flagSet.Args()...)
	if len(scripts) == 0 && len(bundles) == 0 && *definitionsFlag == "" {
		slog.Debug("Nothing to load, printing usage and exiting.")
		flagSet.Usage()
		return nil, true, nil
	}

	config, err := app.NewConfig(app.Config{
		BasePath:        *baseFlag,
		Scripts:         scripts,
		Bundles:         bundles,
		DefinitionsPath: *definitionsFlag,
		Bindings:        bindings,
		EnvPrefix:       *envPrefixFlag,
		WorkerCount:     *workersFlag,
		LogFormat:       strings.ToLower(*logFormatFlag),
		LogLevel:        strings.ToLower(*logLevelFlag),
		Pretty:          *prettyFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
