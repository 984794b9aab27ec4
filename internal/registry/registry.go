package registry

import (
	"log/slog"

	"github.com/specialistvlad/prototype/internal/document"
)

// Entry is a single named prototype.
type Entry struct {
	Name  string
	Class string
	Data  document.Document
	// Source names where the entry came from, e.g. a definition file.
	Source string
}

// Registry holds entries keyed by name, in first-insertion order. It is not
// safe for concurrent use; build one per goroutine and Merge afterwards.
type Registry struct {
	order   []string
	entries map[string]Entry
}

// New creates and initializes a new Registry instance.
func New() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Put stores e under e.Name, replacing any previous entry of that name.
func (r *Registry) Put(e Entry) {
	if prev, exists := r.entries[e.Name]; exists {
		slog.Debug("Prototype overwritten.", "name", e.Name, "previous_source", prev.Source, "source", e.Source)
	} else {
		r.order = append(r.order, e.Name)
	}
	r.entries[e.Name] = e
}

// Get returns the entry stored under name.
func (r *Registry) Get(name string) (Entry, bool) {
	e, ok := r.entries[name]
	return e, ok
}

// Names returns the entry names in insertion order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.order))
	copy(names, r.order)
	return names
}

// Entries returns the entries in insertion order.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, len(r.order))
	for _, name := range r.order {
		entries = append(entries, r.entries[name])
	}
	return entries
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	return len(r.order)
}

// Merge puts every entry of other into r, so other wins on name collisions.
func (r *Registry) Merge(other *Registry) {
	if other == nil {
		return
	}
	for _, e := range other.Entries() {
		r.Put(e)
	}
}

// Document renders the registry as an Object of one-key Objects that map the
// class to the data.
func (r *Registry) Document() *document.Object {
	result := document.NewObject()
	for _, name := range r.order {
		e := r.entries[name]
		node := document.NewObject()
		node.Set(e.Class, e.Data)
		result.Set(name, node)
	}
	return result
}
