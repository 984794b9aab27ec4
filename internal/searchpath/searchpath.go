// Package searchpath resolves module names against `;`-separated path
// templates, the same way Lua's package.searchpath does, but asks a
// fsutil.Finder whether a candidate exists instead of the file system.
package searchpath

import (
	"strings"

	"github.com/specialistvlad/prototype/internal/fsutil"
)

const (
	// DefaultNameSeparator is replaced in module names before substitution.
	DefaultNameSeparator = "."
	// DefaultPathSeparator replaces DefaultNameSeparator.
	DefaultPathSeparator = "/"

	templateSeparator = ";"
	placeholder       = "?"
)

// NotFoundError lists every candidate that was tried, in template order.
type NotFoundError struct {
	Name      string
	Attempted []string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return "module '" + e.Name + "' not found:" + e.Diagnostic()
}

// Diagnostic renders each attempted path on its own line prefixed by a tab,
// matching the message layout of the Lua runtime's own searchers.
func (e *NotFoundError) Diagnostic() string {
	var sb strings.Builder
	for _, p := range e.Attempted {
		sb.WriteString("\n\t")
		sb.WriteString(p)
	}
	return sb.String()
}

// Resolve is ResolveWith using the default separators.
func Resolve(finder fsutil.Finder, name, templates string) (string, error) {
	return ResolveWith(finder, name, templates, DefaultNameSeparator, DefaultPathSeparator)
}

// ResolveWith substitutes name into each template and returns the first
// candidate the finder can open. Every occurrence of the first character of
// sep in name is replaced by the first character of rep; an empty sep
// disables the replacement. The substitution uses the text around the first
// `?` of a template, and a template without `?` is used as-is. When nothing
// is found the error is a *NotFoundError.
func ResolveWith(finder fsutil.Finder, name, templates, sep, rep string) (string, error) {
	notFound := &NotFoundError{Name: name}
	if sep != "" && rep != "" {
		name = strings.ReplaceAll(name, sep[:1], rep[:1])
	}

	for _, template := range strings.Split(templates, templateSeparator) {
		filename := template
		if before, after, ok := strings.Cut(template, placeholder); ok {
			filename = before + name + after
		}

		if exists(finder, filename) {
			return filename, nil
		}
		notFound.Attempted = append(notFound.Attempted, filename)
	}
	return "", notFound
}

// exists treats any successful open as existence; close errors are ignored.
func exists(finder fsutil.Finder, filename string) bool {
	rc, err := finder.FindResource(filename)
	if err != nil {
		return false
	}
	_ = rc.Close()
	return true
}
