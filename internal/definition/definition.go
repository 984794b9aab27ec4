package definition

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/prototype/internal/document"
	"github.com/specialistvlad/prototype/internal/registry"
)

// Definition is one prototype block after evaluation.
type Definition struct {
	Name  string
	Class string
	Data  document.Document
	Range hcl.Range
}

// Entry converts the definition into a registry entry.
func (d *Definition) Entry() registry.Entry {
	return registry.Entry{
		Name:   d.Name,
		Class:  d.Class,
		Data:   d.Data,
		Source: d.Range.String(),
	}
}

// ParseError carries the first error diagnostic of a failed parse.
type ParseError struct {
	Filename   string
	Diagnostic *hcl.Diagnostic
}

func (e *ParseError) Error() string {
	msg := e.Diagnostic.Summary
	if e.Diagnostic.Detail != "" {
		msg += "; " + e.Diagnostic.Detail
	}
	if e.Diagnostic.Subject != nil {
		return e.Diagnostic.Subject.String() + ": " + msg
	}
	return e.Filename + ": " + msg
}

// firstError returns the first error-severity diagnostic as a ParseError,
// or nil if diags holds no errors.
func firstError(filename string, diags hcl.Diagnostics) error {
	for _, diag := range diags {
		if diag.Severity == hcl.DiagError {
			return &ParseError{Filename: filename, Diagnostic: diag}
		}
	}
	return nil
}

func newParseError(filename, summary, detail string, subject *hcl.Range) *ParseError {
	return &ParseError{
		Filename: filename,
		Diagnostic: &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  summary,
			Detail:   detail,
			Subject:  subject,
		},
	}
}
