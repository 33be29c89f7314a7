package luascript

import (
	lua "github.com/yuin/gopher-lua"
)

// Scripts exchange scalars, string-keyed maps and slices with the host;
// that is the whole vocabulary of the item tables and of what the http and
// json modules hand back. Anything else converts to nil.

func toLuaValue(L *lua.LState, value interface{}) lua.LValue {
	switch v := value.(type) {
	case bool:
		return lua.LBool(v)
	case int:
		return lua.LNumber(v)
	case float64:
		return lua.LNumber(v)
	case string:
		return lua.LString(v)
	case []interface{}:
		tbl := L.CreateTable(len(v), 0)
		for i, elem := range v {
			tbl.RawSetInt(i+1, toLuaValue(L, elem))
		}
		return tbl
	case map[string]interface{}:
		tbl := L.CreateTable(0, len(v))
		for key, elem := range v {
			tbl.RawSetString(key, toLuaValue(L, elem))
		}
		return tbl
	default:
		return lua.LNil
	}
}

func toGoValue(lv lua.LValue) interface{} {
	switch v := lv.(type) {
	case lua.LBool:
		return bool(v)
	case lua.LNumber:
		return float64(v)
	case lua.LString:
		return string(v)
	case *lua.LTable:
		return tableToGo(v)
	default:
		return nil
	}
}

// tableToGo turns array-like tables into slices and everything else into
// string-keyed maps; non-string keys are dropped.
func tableToGo(t *lua.LTable) interface{} {
	if n := t.MaxN(); n > 0 {
		out := make([]interface{}, 0, n)
		for i := 1; i <= n; i++ {
			out = append(out, toGoValue(t.RawGetInt(i)))
		}
		return out
	}

	out := make(map[string]interface{})
	t.ForEach(func(key, value lua.LValue) {
		if s, ok := key.(lua.LString); ok {
			out[string(s)] = toGoValue(value)
		}
	})
	return out
}
