package luascript

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
)

// Loader resolves a module name or path to script source.
type Loader interface {
	Load(identifier string) (string, error)
}

// FilesystemLoader reads scripts relative to a base directory.
type FilesystemLoader struct {
	basePath string
}

func NewFilesystemLoader(basePath string) *FilesystemLoader {
	return &FilesystemLoader{basePath: basePath}
}

func (f *FilesystemLoader) Load(identifier string) (string, error) {
	path := filepath.Join(f.basePath, identifier)
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve path: %w", err)
		}
		path = abs
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("load script %s: %w", identifier, err)
	}
	return string(data), nil
}

// setupRequire replaces require so scripts resolve modules through the
// loader instead of the filesystem searchers, keeping preloaded modules
// (http, json) reachable.
func setupRequire(L *lua.LState, loader Loader) {
	originalRequire := L.GetGlobal("require")

	customRequire := L.NewFunction(func(L *lua.LState) int {
		module := L.CheckString(1)

		pkg := L.GetField(L.Get(lua.EnvironIndex), "package")
		preload := L.GetField(pkg, "preload")

		if tbl, ok := preload.(*lua.LTable); ok {
			if L.GetField(tbl, module) != lua.LNil {
				if fn, ok := originalRequire.(*lua.LFunction); ok {
					L.Push(fn)
					L.Push(lua.LString(module))
					L.Call(1, 1)
					return 1
				}
			}
		}

		script, err := loader.Load(module)
		if err != nil {
			L.RaiseError("require %s: %s", module, err.Error())
			return 0
		}

		fn, err := L.LoadString(script)
		if err != nil {
			L.RaiseError("load module %s: %s", module, err.Error())
			return 0
		}

		L.Push(fn)
		L.Call(0, lua.MultRet)
		return L.GetTop()
	})

	L.SetGlobal("require", customRequire)
}
