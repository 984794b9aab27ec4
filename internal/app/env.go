package app

import (
	"os"
	"strings"
)

// environBindings collects the variables of environ whose names start with
// prefix, keyed by the rest of the name. An empty prefix collects nothing.
func environBindings(prefix string, environ []string) map[string]string {
	bindings := make(map[string]string)
	if prefix == "" {
		return bindings
	}
	for _, e := range environ {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) != 2 {
			continue
		}
		name, ok := strings.CutPrefix(pair[0], prefix)
		if !ok || name == "" {
			continue
		}
		bindings[name] = pair[1]
	}
	return bindings
}

// resolveBindings layers the explicit bindings over the ones taken from the
// process environment.
func (a *App) resolveBindings() map[string]string {
	resolved := environBindings(a.config.EnvPrefix, os.Environ())
	for name, value := range a.config.Bindings {
		resolved[name] = value
	}
	return resolved
}
