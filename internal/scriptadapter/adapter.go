package scriptadapter

import (
	"context"
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/stream"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// adapter is the per-instance resource.Adapter running hooks against one
// goja.Runtime. A goja.Runtime is not safe for concurrent use, so every
// method call is serialized through mu.
type adapter struct {
	instance resource.Instance

	mu      sync.Mutex
	vm      *goja.Runtime
	exports *goja.Object
	state   resource.State

	resources *stream.Subject[resource.Resource]
}

func newAdapter(instance resource.Instance, vm *goja.Runtime, exports *goja.Object) *adapter {
	a := &adapter{
		instance:  instance,
		vm:        vm,
		exports:   exports,
		state:     resource.StateStopped,
		resources: stream.NewSubject[resource.Resource](),
	}
	a.resources.Next(a.snapshot())
	return a
}

func (a *adapter) snapshot() resource.Resource {
	return resource.Resource{
		Name:     a.instance.Name,
		BaseName: resource.SimpleName(a.instance.Name),
		State:    a.state,
	}
}

func (a *adapter) runHook(name string, options resource.Options, newState resource.State) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("run %s script for %s", name, a.instance.Name),
			Run: func(*tasklist.RunContext) (*tasklist.TaskList, error) {
				a.mu.Lock()
				defer a.mu.Unlock()

				_, _, err := callHook(a.vm, a.exports, name, a.vm.ToValue(a.instance.Name), a.vm.ToValue(map[string]any(options)))
				if err != nil {
					return nil, err
				}
				a.state = newState
				a.resources.Next(a.snapshot())
				return nil, nil
			},
		},
	})
}

// Start runs the script's optional start hook.
func (a *adapter) Start(options resource.Options) *tasklist.TaskList {
	return a.runHook("start", options, resource.StateStarted)
}

// Stop runs the script's optional stop hook.
func (a *adapter) Stop(options resource.Options) *tasklist.TaskList {
	return a.runHook("stop", options, resource.StateStopped)
}

// Delete runs the script's required delete hook.
func (a *adapter) Delete(options resource.Options) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("run delete script for %s", a.instance.Name),
			Run: func(*tasklist.RunContext) (*tasklist.TaskList, error) {
				a.mu.Lock()
				defer a.mu.Unlock()
				_, _, err := callHook(a.vm, a.exports, "delete", a.vm.ToValue(a.instance.Name), a.vm.ToValue(map[string]any(options)))
				return nil, err
			},
		},
	})
}

// Destroy completes the resource stream; the script has no in-memory
// handle beyond the Runtime itself, which is simply dropped.
func (a *adapter) Destroy(ctx context.Context) error {
	a.resources.Complete()
	return nil
}

func (a *adapter) Resources() *stream.Subject[resource.Resource] { return a.resources }

// Describe calls the script's optional describe hook; a hook that returns
// an object has its string-valued fields merged into the row.
func (a *adapter) Describe() resource.DescribeRow {
	a.mu.Lock()
	defer a.mu.Unlock()

	fields := map[string]string{"state": string(a.state)}

	result, called, err := callHook(a.vm, a.exports, "describe", a.vm.ToValue(a.instance.Name))
	if err != nil || !called || result == nil {
		return resource.DescribeRow{Name: a.instance.Name, Fields: fields}
	}
	if exported, ok := result.Export().(map[string]interface{}); ok {
		for k, v := range exported {
			if s, ok := v.(string); ok {
				fields[k] = s
			}
		}
	}
	return resource.DescribeRow{Name: a.instance.Name, Fields: fields}
}
