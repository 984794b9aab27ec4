package luaenv

import "fmt"

// ScriptError reports a failure while requiring a script: a missing module,
// a syntax error, or any error raised by the script itself.
type ScriptError struct {
	Module string
	Err    error
}

func (e *ScriptError) Error() string {
	return fmt.Sprintf("script '%s': %v", e.Module, e.Err)
}

func (e *ScriptError) Unwrap() error {
	return e.Err
}

// ConversionError reports a Lua value that has no Document representation.
// Path locates the value inside the converted table.
type ConversionError struct {
	Path string
	Type string
}

func (e *ConversionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot convert %s", e.Type)
	}
	return fmt.Sprintf("cannot convert %s at '%s'", e.Type, e.Path)
}

// EntryError reports a malformed entry of the prototypes table.
type EntryError struct {
	Name   string
	Field  string
	Reason string
}

func (e *EntryError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("prototype '%s': %s", e.Name, e.Reason)
	}
	return fmt.Sprintf("prototype '%s': field '%s' %s", e.Name, e.Field, e.Reason)
}
