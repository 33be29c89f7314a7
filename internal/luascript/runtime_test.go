package luascript

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestExecuteRoundTripsValues(t *testing.T) {
	r := New()
	defer r.Close()

	err := r.LoadScript(`
function transform(items)
	local out = {}
	for i, item in ipairs(items) do
		out[i] = { name = item.name, doubled = item.count * 2 }
	end
	return out
end
`)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	results, err := r.Execute("transform", []interface{}{
		map[string]interface{}{"name": "a", "count": 2},
		map[string]interface{}{"name": "b", "count": 5},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	want := []interface{}{
		map[string]interface{}{"name": "a", "doubled": float64(4)},
		map[string]interface{}{"name": "b", "doubled": float64(10)},
	}
	if !reflect.DeepEqual(results[0], want) {
		t.Errorf("results[0] = %#v, want %#v", results[0], want)
	}
}

func TestExecuteMissingFunction(t *testing.T) {
	r := New()
	defer r.Close()

	if _, err := r.Execute("absent"); err == nil {
		t.Fatal("expected error for undefined function")
	}
}

func TestSecureModeStripsOS(t *testing.T) {
	r := New(WithSecureMode(true))
	defer r.Close()

	err := r.LoadScript(`
function escape()
	return os.getenv("HOME")
end
`)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	if _, err := r.Execute("escape"); err == nil {
		t.Fatal("secure mode must strip the os module")
	}
}

func TestInsecureModeKeepsOS(t *testing.T) {
	r := New(WithSecureMode(false))
	defer r.Close()

	err := r.LoadScript(`
function now()
	return os.time()
end
`)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	if _, err := r.Execute("now"); err != nil {
		t.Fatalf("os must stay reachable without secure mode: %v", err)
	}
}

func TestRequireThroughLoader(t *testing.T) {
	dir := t.TempDir()
	module := `
local helper = {}
function helper.greet(name)
	return "hello " .. name
end
return helper
`
	if err := os.WriteFile(filepath.Join(dir, "helper.lua"), []byte(module), 0o644); err != nil {
		t.Fatalf("write module: %v", err)
	}

	r := New(WithLoader(NewFilesystemLoader(dir)))
	defer r.Close()

	err := r.LoadScript(`
local helper = require("helper.lua")
function greet()
	return helper.greet("world")
end
`)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	results, err := r.Execute("greet")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if results[0] != "hello world" {
		t.Errorf("result = %v", results[0])
	}
}

func TestJSONModulePreloaded(t *testing.T) {
	r := New()
	defer r.Close()

	err := r.LoadScript(`
local json = require("json")
function parse()
	local decoded = json.decode('{"key": "value"}')
	return decoded.key
end
`)
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	results, err := r.Execute("parse")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if results[0] != "value" {
		t.Errorf("result = %v", results[0])
	}
}
