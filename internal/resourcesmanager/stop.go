package resourcesmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// Stop stops every resourceDependent in parallel, then the resource itself,
// then every directDependent in parallel (spec.md §4.5.5) — the reverse
// order of Start, so a dependency never stops before whatever relies on it.
// Start and Stop are required together: a resource type missing Stop fails
// immediately with NoStopError, one missing only Start fails with
// NoStartError (it can never be brought back up once stopped).
func (m *Manager) Stop(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	if crud := m.typ.CRUD(); !crud.SupportsStart() {
		if crud.Stop == nil {
			return m.failedTaskList(ctx, "stop", name, &resource.NoStopError{ResourceType: m.ResourceType})
		}
		return m.failedTaskList(ctx, "stop", name, &resource.NoStartError{ResourceType: m.ResourceType})
	}

	m.mu.Lock()
	if existing, ok := m.stopTasks[name]; ok {
		m.mu.Unlock()
		return existing
	}
	adapter, exists := m.adapters[name]
	if !exists {
		m.mu.Unlock()
		return m.skipTaskList(ctx, "stop", name, "does not exist")
	}
	dependents := append([]resourceref.Ref(nil), m.resourceDependents[name]...)
	children := append([]resourceref.Ref(nil), m.directDependents[name]...)
	startTask := m.startTasks[name]
	m.mu.Unlock()

	if startTask != nil {
		startTask.Abort()
	}

	startedAt := time.Now()
	var tl *tasklist.TaskList
	tl = tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("stop %s", name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				return nil, m.runStop(rc, name, adapter, dependents, children, options)
			},
		},
	}, tasklist.OnComplete(func() {
		m.mu.Lock()
		m.started[name] = false
		m.describeCache.Remove(name)
		m.mu.Unlock()
	}), tasklist.OnDone(func(failed bool) {
		m.mu.Lock()
		delete(m.stopTasks, name)
		m.mu.Unlock()
		m.NotifyUpdate()
		m.recordOp("stop", name, startedAt, tl.Err())
	}))

	m.mu.Lock()
	m.stopTasks[name] = tl
	m.mu.Unlock()

	tl.Run(ctx, nil)
	return tl
}

func (m *Manager) runStop(rc *tasklist.RunContext, name string, adapter resource.Adapter, dependents, children []resourceref.Ref, options resource.Options) error {
	stoppable := filterByType(dependents, m.supportsStartStop)
	if len(stoppable) > 0 {
		depList := m.buildDelegatedStopList(stoppable, options)
		release := rc.List.TrackNested(depList)
		depList.Run(rc.Context, nil)
		<-depList.Done()
		release()
		if err := depList.Err(); err != nil {
			return err
		}
	}

	stopList := adapter.Stop(options)
	release := rc.List.TrackNested(stopList)
	stopList.Run(rc.Context, rc.Shared)
	<-stopList.Done()
	release()
	if err := stopList.Err(); err != nil {
		return err
	}

	stoppableChildren := filterByType(children, m.supportsStartStop)
	if len(stoppableChildren) > 0 {
		childList := m.buildDelegatedStopList(stoppableChildren, options)
		release := rc.List.TrackNested(childList)
		childList.Run(rc.Context, nil)
		<-childList.Done()
		release()
		if err := childList.Err(); err != nil {
			return err
		}
	}

	return nil
}

func (m *Manager) buildDelegatedStopList(refs []resourceref.Ref, options resource.Options) *tasklist.TaskList {
	tasks := make([]tasklist.Task, 0, len(refs))
	for _, ref := range refs {
		ref := ref
		tasks = append(tasks, tasklist.Task{
			Title: fmt.Sprintf("stop %s", ref.Name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				owner, err := m.locator.GetResourcesManager(ref.Plugin, ref.ResourceType)
				if err != nil {
					return nil, err
				}
				return owner.Stop(rc.Context, ref.Name, options), nil
			},
		})
	}
	return tasklist.New(tasks, tasklist.Concurrent())
}
