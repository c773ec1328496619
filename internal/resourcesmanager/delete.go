package resourcesmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// Delete aborts any in-flight create/start, stops the resource if running,
// cascades to every dependent, tears down the adapter, and releases its
// on-disk state. Re-entering with a delete already in flight for name
// returns the same TaskList reference (P4).
func (m *Manager) Delete(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	m.mu.Lock()
	if existing, ok := m.deleteTasks[name]; ok {
		m.mu.Unlock()
		return existing
	}
	m.mu.Unlock()

	startedAt := time.Now()
	var tl *tasklist.TaskList
	tl = tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("delete %s", name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				return nil, m.runDelete(rc, name, options)
			},
		},
	}, tasklist.FreshContext(), tasklist.OnDone(func(failed bool) {
		m.mu.Lock()
		delete(m.deleteTasks, name)
		m.mu.Unlock()
		m.NotifyUpdate()
		m.recordOp("delete", name, startedAt, tl.Err())
	}))

	m.mu.Lock()
	if existing, ok := m.deleteTasks[name]; ok {
		m.mu.Unlock()
		return existing
	}
	m.deleteTasks[name] = tl
	m.mu.Unlock()

	tl.Run(ctx, nil)
	return tl
}

func (m *Manager) runDelete(rc *tasklist.RunContext, name string, options resource.Options) error {
	m.mu.Lock()
	createTask := m.createTasks[name]
	startTask := m.startTasks[name]
	started := m.started[name]
	m.mu.Unlock()

	if createTask != nil {
		createTask.Abort()
		createTask.Wait()
	}
	if startTask != nil {
		startTask.Abort()
		startTask.Wait()
	}

	if m.typ.CRUD().SupportsStart() && started {
		stopList := m.Stop(rc.Context, name, options)
		release := rc.List.TrackNested(stopList)
		<-stopList.Done()
		release()
		if err := stopList.Err(); err != nil {
			m.log.WithError(err).WithField("name", name).Warn("stop before delete failed; continuing")
		}
	}

	m.mu.Lock()
	adapter, exists := m.adapters[name]
	dependents := resourceref.Dedup(append(append([]resourceref.Ref(nil), m.resourceDependents[name]...), m.directDependents[name]...))
	m.mu.Unlock()

	if !exists {
		rc.List.Notify(fmt.Sprintf("%s does not exist", name))
		return nil
	}

	if len(dependents) > 0 {
		cascadeList := m.buildCascadeDeleteTaskList(dependents, options)
		release := rc.List.TrackNested(cascadeList)
		cascadeList.Run(rc.Context, nil)
		<-cascadeList.Done()
		release()
		if err := cascadeList.Err(); err != nil {
			m.log.WithError(err).WithField("name", name).Warn("cascade delete of a dependent failed")
		}
	}

	deleteList := adapter.Delete(options)
	release := rc.List.TrackNested(deleteList)
	deleteList.Run(rc.Context, rc.Shared)
	<-deleteList.Done()
	release()
	deleteErr := deleteList.Err()

	m.finalCleanup(rc.Context, name, adapter)

	return deleteErr
}

func (m *Manager) buildCascadeDeleteTaskList(dependents []resourceref.Ref, options resource.Options) *tasklist.TaskList {
	tasks := make([]tasklist.Task, 0, len(dependents))
	for _, dep := range dependents {
		dep := dep
		tasks = append(tasks, tasklist.Task{
			Title: fmt.Sprintf("delete dependent %s", dep.Name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				owner, err := m.locator.GetResourcesManager(dep.Plugin, dep.ResourceType)
				if err != nil {
					return nil, err
				}
				return owner.Delete(rc.Context, dep.Name, options), nil
			},
		})
	}
	return tasklist.New(tasks, tasklist.Concurrent())
}

// finalCleanup destroys the adapter and drops every trace of name from
// memory and disk. Run unconditionally, regardless of adapter.Delete's
// outcome, so a failed delete never leaves the manager wedged.
func (m *Manager) finalCleanup(ctx context.Context, name string, adapter resource.Adapter) {
	if err := adapter.Destroy(ctx); err != nil {
		m.log.WithError(err).WithField("name", name).Warn("adapter destroy failed")
	}

	m.mu.Lock()
	delete(m.adapters, name)
	delete(m.started, name)
	delete(m.directDependents, name)
	delete(m.resourceDependents, name)
	m.describeCache.Remove(name)
	m.mu.Unlock()

	if err := m.ports.Release(m.ref(name)); err != nil {
		m.log.WithError(err).WithField("name", name).Warn("port release failed")
	}
	if err := m.readyRegistry.Delete(name); err != nil {
		m.log.WithError(err).WithField("name", name).Warn("ready marker delete failed")
	}
	if err := m.deps.DeleteDependencies(name); err != nil {
		m.log.WithError(err).WithField("name", name).Warn("dependencies delete failed")
	}
	if err := m.deps.DeleteDependents(name); err != nil {
		m.log.WithError(err).WithField("name", name).Warn("dependents delete failed")
	}
}
