package luaenv

import (
	"fmt"

	"github.com/specialistvlad/prototype/internal/registry"
	lua "github.com/yuin/gopher-lua"
)

const (
	classField = "class"
	dataField  = "data"
	luaSource  = "lua"
)

// Extract reads the prototypes global of L into a Registry. Entries are
// visited in table iteration order. Any malformed entry or unconvertible
// value fails the whole extraction.
func Extract(L *lua.LState) (*registry.Registry, error) {
	prototypes, ok := L.GetGlobal(PrototypesGlobal).(*lua.LTable)
	if !ok {
		return nil, fmt.Errorf("global '%s' is not a table", PrototypesGlobal)
	}
	return ExtractTable(L, prototypes)
}

// ExtractTable is Extract for an already obtained prototypes table. The
// class and data fields are read through metatables, so an entry may inherit
// them via __index. Iteration over entries and data stays raw.
func ExtractTable(L *lua.LState, prototypes *lua.LTable) (*registry.Registry, error) {
	reg := registry.New()
	for k, v := prototypes.Next(lua.LNil); k != lua.LNil; k, v = prototypes.Next(k) {
		name, ok := keyString(k)
		if !ok {
			return nil, &EntryError{Name: k.String(), Reason: "has a " + k.Type().String() + " name"}
		}

		entry, ok := v.(*lua.LTable)
		if !ok {
			return nil, &EntryError{Name: name, Reason: "is a " + v.Type().String() + ", not a table"}
		}
		classValue := L.GetField(entry, classField)
		class, ok := classValue.(lua.LString)
		if !ok {
			return nil, fieldError(name, classField, "string", classValue)
		}
		dataValue := L.GetField(entry, dataField)
		data, ok := dataValue.(*lua.LTable)
		if !ok {
			return nil, fieldError(name, dataField, "table", dataValue)
		}

		doc, err := newConverter().table(data, name+"."+dataField)
		if err != nil {
			return nil, err
		}
		reg.Put(registry.Entry{Name: name, Class: string(class), Data: doc, Source: luaSource})
	}
	return reg, nil
}

func fieldError(name, field, want string, got lua.LValue) *EntryError {
	if got == lua.LNil {
		return &EntryError{Name: name, Field: field, Reason: "is missing"}
	}
	return &EntryError{Name: name, Field: field, Reason: "must be a " + want + ", got " + got.Type().String()}
}
