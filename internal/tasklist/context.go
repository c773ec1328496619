package tasklist

import (
	"sync"

	"github.com/nupi-ai/privnet/internal/resourceref"
)

// Context is the mutable bag a TaskList's tasks share to communicate
// results to one another and to the list's own finalization step. Only the
// three fields the core actually needs are modeled; callers that want more
// should wrap this type rather than stuff extra keys into a generic map.
type Context struct {
	mu              sync.Mutex
	resourceAdapter any
	dependencies    []resourceref.Ref
	dependents      []resourceref.Ref
}

// ResourceAdapter returns whatever a prior task installed, or nil.
func (c *Context) ResourceAdapter() any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resourceAdapter
}

// SetResourceAdapter installs the adapter produced by a create pipeline.
func (c *Context) SetResourceAdapter(adapter any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resourceAdapter = adapter
}

// Dependencies returns the resources this operation declared a dependency on.
func (c *Context) Dependencies() []resourceref.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dependencies
}

// SetDependencies records the dependency edges produced by a create pipeline.
func (c *Context) SetDependencies(deps []resourceref.Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dependencies = deps
}

// Dependents returns the resources created as children of this operation.
func (c *Context) Dependents() []resourceref.Ref {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dependents
}

// SetDependents records the direct-dependent edges produced by a create pipeline.
func (c *Context) SetDependents(deps []resourceref.Ref) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dependents = deps
}
