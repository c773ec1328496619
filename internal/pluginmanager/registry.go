// Package pluginmanager is the lookup layer the core's design notes call
// PluginManager: a registry from (plugin, resourceType) to the
// ResourcesManager that owns every resource of that type, plus the
// two-pass coordinator that brings every registered manager up together.
package pluginmanager

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourcesmanager"
)

func key(plugin, resourceType string) string { return plugin + "/" + resourceType }

// Registry implements resourcesmanager.Locator: a map keyed by the composite
// (plugin, resourceType) string, guarded by a RWMutex so lookups from many
// concurrently-running managers never block each other.
type Registry struct {
	mu       sync.RWMutex
	managers map[string]*resourcesmanager.Manager
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{managers: make(map[string]*resourcesmanager.Manager)}
}

// Register adds mgr under (mgr.Plugin, mgr.ResourceType). Registering the
// same pair twice replaces the prior entry.
func (r *Registry) Register(mgr *resourcesmanager.Manager) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managers[key(mgr.Plugin, mgr.ResourceType)] = mgr
}

// GetResourcesManager implements resourcesmanager.Locator.
func (r *Registry) GetResourcesManager(plugin, resourceType string) (*resourcesmanager.Manager, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mgr, ok := r.managers[key(plugin, resourceType)]
	if !ok {
		return nil, fmt.Errorf("pluginmanager: no resources manager for %s/%s", plugin, resourceType)
	}
	return mgr, nil
}

// All returns every registered manager, sorted by (plugin, resourceType)
// for deterministic iteration (logging, CLI listing).
func (r *Registry) All() []*resourcesmanager.Manager {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.managers))
	for k := range r.managers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]*resourcesmanager.Manager, 0, len(keys))
	for _, k := range keys {
		out = append(out, r.managers[k])
	}
	return out
}

// InitAll brings every registered manager up in the two passes spec.md §9
// requires: every manager first rehydrates its own adapters
// (LoadAdapters), and only once all of them have done so does any manager
// propagate its dependency edges to its peers (PropagateDependents) — so
// registration order never determines whether a cross-manager dependent
// edge gets recorded.
func (r *Registry) InitAll(ctx context.Context) (map[string][]*resource.InitError, error) {
	managers := r.All()

	allErrs := make(map[string][]*resource.InitError, len(managers))
	for _, mgr := range managers {
		errs, err := mgr.LoadAdapters(ctx)
		if err != nil {
			return nil, fmt.Errorf("pluginmanager: load adapters for %s/%s: %w", mgr.Plugin, mgr.ResourceType, err)
		}
		if len(errs) > 0 {
			allErrs[key(mgr.Plugin, mgr.ResourceType)] = errs
		}
	}

	for _, mgr := range managers {
		mgr.PropagateDependents()
	}
	for _, mgr := range managers {
		mgr.NotifyUpdate()
	}

	return allErrs, nil
}
