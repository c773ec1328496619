// Package scriptadapter is an example MasterResourceAdapter whose
// create/start/stop/delete hooks are JS functions in a plugin-supplied
// script, executed with goja. It stands in for a lightweight "sidecar"
// resource type that a plugin author can implement without writing Go.
package scriptadapter

import (
	"context"
	"fmt"

	"github.com/dop251/goja"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// requiredHooks are validated present at Master construction; start/stop/
// describe are optional, matching resource.CRUD's optional start/stop pair.
var requiredHooks = []string{"create", "delete"}

// Master implements resource.MasterAdapter by running a manifest-declared
// script's exported hooks.
type Master struct {
	manifest *Manifest
	program  *goja.Program
}

// NewMaster loads and validates the manifest at manifestPath.
func NewMaster(manifestPath string) (*Master, error) {
	manifest, scriptPath, err := LoadManifest(manifestPath)
	if err != nil {
		return nil, err
	}
	prog, _, err := compileScript(scriptPath)
	if err != nil {
		return nil, err
	}

	vm, exports, err := newRuntime(prog)
	if err != nil {
		return nil, fmt.Errorf("scriptadapter: validate script: %w", err)
	}
	for _, hook := range requiredHooks {
		fnVal := exports.Get(hook)
		if fnVal == nil || goja.IsUndefined(fnVal) {
			return nil, fmt.Errorf("scriptadapter: script %s missing required export %q", manifest.Script, hook)
		}
		if _, ok := goja.AssertFunction(fnVal); !ok {
			return nil, fmt.Errorf("scriptadapter: script %s export %q is not a function", manifest.Script, hook)
		}
	}
	_ = vm

	return &Master{manifest: manifest, program: prog}, nil
}

// CreateResourceAdapter runs the script's create(name, options) hook. The
// hook may return {dependencies: [{plugin, resourceType, name}, ...]} to
// declare cross-manager dependency edges (spec.md §4.5.7).
func (m *Master) CreateResourceAdapter(instance resource.Instance, options resource.Options) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("run create script for %s", instance.Name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				vm, exports, err := newRuntime(m.program)
				if err != nil {
					return nil, err
				}

				result, _, err := callHook(vm, exports, "create", vm.ToValue(instance.Name), vm.ToValue(map[string]any(options)))
				if err != nil {
					return nil, err
				}

				deps := parseDependencies(vm, result)

				a := newAdapter(instance, vm, exports)
				rc.Shared.SetResourceAdapter(a)
				rc.Shared.SetDependencies(deps)
				return nil, nil
			},
		},
	})
}

// InitResourceAdapter re-runs the script in a fresh Runtime and calls its
// optional init(name, dataPath) hook to let the script reattach to any
// state it persisted under instance.DataPath.
func (m *Master) InitResourceAdapter(ctx context.Context, instance resource.Instance) (resource.Adapter, error) {
	vm, exports, err := newRuntime(m.program)
	if err != nil {
		return nil, err
	}
	if _, _, err := callHook(vm, exports, "init", vm.ToValue(instance.Name), vm.ToValue(instance.DataPath)); err != nil {
		return nil, err
	}
	return newAdapter(instance, vm, exports), nil
}

func parseDependencies(vm *goja.Runtime, result goja.Value) []resourceref.Ref {
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil
	}
	exported, ok := result.Export().(map[string]interface{})
	if !ok {
		return nil
	}
	raw, ok := exported["dependencies"].([]interface{})
	if !ok {
		return nil
	}

	deps := make([]resourceref.Ref, 0, len(raw))
	for _, item := range raw {
		entry, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		deps = append(deps, resourceref.Ref{
			Plugin:       stringField(entry, "plugin"),
			ResourceType: stringField(entry, "resourceType"),
			Name:         stringField(entry, "name"),
		})
	}
	return deps
}

func stringField(m map[string]interface{}, key string) string {
	s, _ := m[key].(string)
	return s
}
