package luaenv

import (
	"strconv"

	"github.com/specialistvlad/prototype/internal/document"
	lua "github.com/yuin/gopher-lua"
)

// ToDocument converts a Lua table into a Document. A table with a non-zero
// Length becomes an Array, any other table becomes an Object.
//
// Note that a table holding both a 1..N run and string keys is emitted as an
// Array, and the string keys contribute only their values. Callers relying on
// object output must not start their keys at 1.
func ToDocument(tbl *lua.LTable) (document.Document, error) {
	return newConverter().table(tbl, "")
}

// ToDocumentValue converts any convertible Lua value, tables included.
func ToDocumentValue(v lua.LValue) (document.Document, error) {
	return newConverter().value(v, "")
}

// Length returns the largest N such that t[1] through t[N] are all non-nil.
func Length(tbl *lua.LTable) int {
	n := 0
	for tbl.RawGet(lua.LNumber(n+1)) != lua.LNil {
		n++
	}
	return n
}

type converter struct {
	// tables on the current path, for cycle detection
	visiting map[*lua.LTable]struct{}
}

func newConverter() *converter {
	return &converter{visiting: make(map[*lua.LTable]struct{})}
}

func (c *converter) table(tbl *lua.LTable, path string) (document.Document, error) {
	if _, seen := c.visiting[tbl]; seen {
		return nil, &ConversionError{Path: path, Type: "cyclic table reference"}
	}
	c.visiting[tbl] = struct{}{}
	defer delete(c.visiting, tbl)

	if Length(tbl) > 0 {
		return c.array(tbl, path)
	}
	return c.object(tbl, path)
}

// array appends every value in iteration order. The array part comes first,
// so the 1..N run is emitted in index order before any remaining entries.
func (c *converter) array(tbl *lua.LTable, path string) (document.Document, error) {
	result := make(document.Array, 0, Length(tbl))
	for k, v := tbl.Next(lua.LNil); k != lua.LNil; k, v = tbl.Next(k) {
		elem, err := c.value(v, indexPath(path, k))
		if err != nil {
			return nil, err
		}
		result = append(result, elem)
	}
	return result, nil
}

func (c *converter) object(tbl *lua.LTable, path string) (document.Document, error) {
	result := document.NewObject()
	for k, v := tbl.Next(lua.LNil); k != lua.LNil; k, v = tbl.Next(k) {
		key, ok := keyString(k)
		if !ok {
			return nil, &ConversionError{Path: path, Type: k.Type().String() + " key"}
		}
		elem, err := c.value(v, fieldPath(path, key))
		if err != nil {
			return nil, err
		}
		result.Set(key, elem)
	}
	return result, nil
}

func (c *converter) value(v lua.LValue, path string) (document.Document, error) {
	switch val := v.(type) {
	case *lua.LTable:
		return c.table(val, path)
	case lua.LBool:
		return document.Bool(val), nil
	case lua.LNumber:
		return document.Number(float64(val)), nil
	case *lua.LNilType:
		return document.Null{}, nil
	case lua.LString:
		return document.String(val), nil
	case *lua.LUserData:
		return document.Opaque{Value: val.Value}, nil
	default:
		return nil, &ConversionError{Path: path, Type: v.Type().String()}
	}
}

// keyString coerces a table key the way tostring would. Only string and
// number keys are accepted.
func keyString(k lua.LValue) (string, bool) {
	switch key := k.(type) {
	case lua.LString:
		return string(key), true
	case lua.LNumber:
		return key.String(), true
	default:
		return "", false
	}
}

func fieldPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}

func indexPath(path string, k lua.LValue) string {
	switch key := k.(type) {
	case lua.LNumber:
		return path + "[" + key.String() + "]"
	case lua.LString:
		return fieldPath(path, string(key))
	default:
		return path + "[" + strconv.Quote(k.String()) + "]"
	}
}
