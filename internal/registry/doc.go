// Package registry holds the prototypes produced by every front end.
//
// A Registry maps a prototype name to its Entry, which pairs the class
// identifier with the converted data Document. Both the Lua environment and
// the HCL definition loader write into a Registry, and the merged result is
// rendered with Document into the shape the deserialization manager expects:
//
//	{ "<prototypeName>": { "<className>": <data> } }
//
// Writing an existing name replaces the entry but keeps its original
// position, the same way assigning to an existing key of a Lua table does.
// Nothing is validated against a schema here.
package registry
