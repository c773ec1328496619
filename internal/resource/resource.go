// Package resource defines the data model and adapter contracts every
// ResourcesManager is built from: the Resource snapshot, the per-instance
// ResourceAdapter driver, and the per-type MasterResourceAdapter factory.
package resource

import (
	"context"
	"strings"

	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/stream"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// State is a resource's coarse lifecycle state as observed by its adapter.
type State string

const (
	StateStarted State = "started"
	StateStopped State = "stopped"
)

// Resource is the runtime view of one resource instance, as exposed by its
// adapter on its resource stream.
type Resource struct {
	Plugin       string
	ResourceType string
	Name         string
	BaseName     string
	State        State
	Attributes   map[string]any
}

// Dependency is the (plugin, resourceType, name) triple recorded in the
// dependency store. It is the spec's ResourceDependency.
type Dependency = resourceref.Ref

// Options is a generic bag of per-operation parameters; adapters interpret
// their own keys.
type Options map[string]any

// Instance identifies the resource a Master*Adapter call is about and the
// private directory it owns.
type Instance struct {
	Name     string
	DataPath string
}

// Adapter is the per-instance driver exposed by a resource: exclusive
// ownership, side-effecting start/stop/delete, and a live state stream.
type Adapter interface {
	// Start starts the resource. Failure surfaces through the returned
	// TaskList once run.
	Start(options Options) *tasklist.TaskList
	// Stop stops the resource.
	Stop(options Options) *tasklist.TaskList
	// Delete performs destructive cleanup of the adapter's underlying storage.
	Delete(options Options) *tasklist.TaskList
	// Destroy tears down in-memory state only (subscriptions, mirrored
	// child processes); it must be idempotent.
	Destroy(ctx context.Context) error
	// Resources is a live stream of Resource snapshots; it must emit at
	// least once on subscription and is completed by Destroy.
	Resources() *stream.Subject[Resource]
	// Describe returns a human-oriented introspection row.
	Describe() DescribeRow
}

// MasterAdapter is the per-resource-type factory that creates and
// rehydrates Adapters.
type MasterAdapter interface {
	// CreateResourceAdapter builds a new Adapter for instance. The returned
	// TaskList's final context carries {resourceAdapter, dependencies,
	// dependents} via its Context accessors.
	CreateResourceAdapter(instance Instance, options Options) *tasklist.TaskList
	// InitResourceAdapter rehydrates an existing Adapter at startup.
	InitResourceAdapter(ctx context.Context, instance Instance) (Adapter, error)
}

// SimpleName extracts the leaf segment of a compound name ("scope/leaf").
func SimpleName(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[i+1:]
	}
	return name
}

// Scope extracts the scope segment of a compound name, or "" if name has none.
func Scope(name string) string {
	if i := strings.LastIndex(name, "/"); i >= 0 {
		return name[:i]
	}
	return ""
}
