package luaenv

import (
	"github.com/specialistvlad/prototype/internal/document"
	lua "github.com/yuin/gopher-lua"
)

// FromDocument builds the Lua value that ToDocument would convert back into
// d. Arrays become 1-based tables and Opaque values become userdata.
//
// Null elements of an Array become nil and therefore end the 1..N run, and
// an empty Array comes back as an Object.
func FromDocument(L *lua.LState, d document.Document) lua.LValue {
	switch v := d.(type) {
	case *document.Object:
		if v == nil {
			return lua.LNil
		}
		tbl := L.CreateTable(0, v.Len())
		v.Range(func(key string, value document.Document) bool {
			tbl.RawSetString(key, FromDocument(L, value))
			return true
		})
		return tbl
	case document.Array:
		tbl := L.CreateTable(len(v), 0)
		for i, elem := range v {
			tbl.RawSetInt(i+1, FromDocument(L, elem))
		}
		return tbl
	case document.Bool:
		return lua.LBool(v)
	case document.Int:
		return lua.LNumber(v)
	case document.Long:
		return lua.LNumber(v)
	case document.Double:
		return lua.LNumber(v)
	case document.String:
		return lua.LString(v)
	case document.Opaque:
		ud := L.NewUserData()
		ud.Value = v.Value
		return ud
	default:
		return lua.LNil
	}
}
