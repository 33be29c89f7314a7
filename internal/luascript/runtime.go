// Package luascript embeds a restricted Lua interpreter behind the script
// stage. Scripts get http and json modules preloaded; os, io and the file
// loaders are stripped.
package luascript

import (
	"fmt"
	"net/http"
	"time"

	"github.com/cjoudrey/gluahttp"
	lua "github.com/yuin/gopher-lua"
	luajson "layeh.com/gopher-json"
)

type Runtime struct {
	state      *lua.LState
	secureMode bool
}

type Option func(*Runtime)

func WithLoader(loader Loader) Option {
	return func(r *Runtime) {
		if loader != nil {
			setupRequire(r.state, loader)
		}
	}
}

func WithSecureMode(secure bool) Option {
	return func(r *Runtime) {
		r.secureMode = secure
	}
}

func New(options ...Option) *Runtime {
	L := lua.NewState()

	r := &Runtime{
		state:      L,
		secureMode: true,
	}

	for _, opt := range options {
		opt(r)
	}

	if r.secureMode {
		r.secureState()
	}

	httpClient := &http.Client{Timeout: 30 * time.Second}
	L.PreloadModule("http", gluahttp.NewHttpModule(httpClient).Loader)
	luajson.Preload(L)

	return r
}

func (r *Runtime) secureState() {
	r.state.SetGlobal("os", lua.LNil)
	r.state.SetGlobal("io", lua.LNil)
	r.state.SetGlobal("debug", lua.LNil)
	r.state.SetGlobal("dofile", lua.LNil)
	r.state.SetGlobal("loadfile", lua.LNil)
}

func (r *Runtime) LoadScript(script string) error {
	if err := r.state.DoString(script); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	return nil
}

// Execute calls a global function defined by the loaded script and returns
// its results converted to Go values.
func (r *Runtime) Execute(functionName string, args ...interface{}) ([]interface{}, error) {
	fn := r.state.GetGlobal(functionName)
	if fn == lua.LNil {
		return nil, fmt.Errorf("function %s not found", functionName)
	}

	luaFn, ok := fn.(*lua.LFunction)
	if !ok {
		return nil, fmt.Errorf("%s is not a function", functionName)
	}

	r.state.Push(luaFn)
	for _, arg := range args {
		r.state.Push(toLuaValue(r.state, arg))
	}

	if err := r.state.PCall(len(args), lua.MultRet, nil); err != nil {
		return nil, fmt.Errorf("lua execution error: %w", err)
	}

	numResults := r.state.GetTop()
	results := make([]interface{}, numResults)
	for i := 1; i <= numResults; i++ {
		results[i-1] = toGoValue(r.state.Get(i))
	}
	r.state.SetTop(0)

	return results, nil
}

func (r *Runtime) Close() error {
	if r.state != nil {
		r.state.Close()
	}
	return nil
}
