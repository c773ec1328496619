package scriptadapter

import (
	"fmt"
	"os"

	"github.com/dop251/goja"
)

// compileScript parses source once at Master construction time; each
// instance then runs the compiled program in its own fresh Runtime, since
// goja.Runtime is not safe for concurrent use and every resource instance
// needs independent module state.
func compileScript(path string) (*goja.Program, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("scriptadapter: read script %s: %w", path, err)
	}
	prog, err := goja.Compile(path, string(data), false)
	if err != nil {
		return nil, "", fmt.Errorf("scriptadapter: compile script %s: %w", path, err)
	}
	return prog, string(data), nil
}

// newRuntime runs prog in a fresh Runtime and returns the module.exports
// object, following the same module/exports bootstrap convention as the
// teacher's pipeline_plugin.go.
func newRuntime(prog *goja.Program) (*goja.Runtime, *goja.Object, error) {
	vm := goja.New()
	module := vm.NewObject()
	exports := vm.NewObject()
	_ = module.Set("exports", exports)
	if err := vm.Set("module", module); err != nil {
		return nil, nil, err
	}
	if err := vm.Set("exports", exports); err != nil {
		return nil, nil, err
	}

	if _, err := vm.RunProgram(prog); err != nil {
		return nil, nil, fmt.Errorf("scriptadapter: execute script: %w", err)
	}

	moduleExports := module.Get("exports")
	if moduleExports != nil {
		if obj := moduleExports.ToObject(vm); obj != nil {
			exports = obj
		}
	}

	return vm, exports, nil
}

// callHook invokes the named export, if present, with args; a missing hook
// is not an error (every hook is optional except create/delete, whose
// absence is validated once at Master construction).
func callHook(vm *goja.Runtime, exports *goja.Object, name string, args ...goja.Value) (goja.Value, bool, error) {
	fnVal := exports.Get(name)
	if fnVal == nil || goja.IsUndefined(fnVal) {
		return nil, false, nil
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return nil, false, fmt.Errorf("scriptadapter: export %q is not a function", name)
	}
	res, err := fn(goja.Undefined(), args...)
	if err != nil {
		return nil, true, fmt.Errorf("scriptadapter: %s hook failed: %w", name, err)
	}
	return res, true, nil
}
