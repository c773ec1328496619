package resourcesmanager

import (
	"context"
	"fmt"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// Start brings name's directDependents up first, then the resource itself
// (spec.md §4.5.4). Start and Stop are required together: a resource type
// missing Start fails immediately with NoStartError, one missing only Stop
// fails with NoStopError (it can never be brought back down).
func (m *Manager) Start(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	if crud := m.typ.CRUD(); !crud.SupportsStart() {
		if crud.Start == nil {
			return m.failedTaskList(ctx, "start", name, &resource.NoStartError{ResourceType: m.ResourceType})
		}
		return m.failedTaskList(ctx, "start", name, &resource.NoStopError{ResourceType: m.ResourceType})
	}

	m.mu.Lock()
	if existing, ok := m.startTasks[name]; ok {
		m.mu.Unlock()
		return existing
	}
	adapter, exists := m.adapters[name]
	if !exists {
		m.mu.Unlock()
		return m.skipTaskList(ctx, "start", name, "does not exist")
	}
	if m.started[name] {
		m.mu.Unlock()
		return m.skipTaskList(ctx, "start", name, "already started")
	}
	dependents := append([]resourceref.Ref(nil), m.directDependents[name]...)
	stopTask := m.stopTasks[name]
	m.mu.Unlock()

	if stopTask != nil {
		stopTask.Abort()
	}

	startedAt := time.Now()
	var tl *tasklist.TaskList
	tl = tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("start %s", name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				return nil, m.runStart(rc, name, adapter, dependents, options)
			},
		},
	}, tasklist.OnDone(func(failed bool) {
		m.mu.Lock()
		m.started[name] = !failed
		m.describeCache.Remove(name)
		delete(m.startTasks, name)
		m.mu.Unlock()
		m.NotifyUpdate()
		m.recordOp("start", name, startedAt, tl.Err())
		if failed {
			go m.stopFireAndForget(name, options)
		}
	}))

	m.mu.Lock()
	m.startTasks[name] = tl
	m.mu.Unlock()

	tl.Run(ctx, nil)
	return tl
}

func (m *Manager) runStart(rc *tasklist.RunContext, name string, adapter resource.Adapter, dependents []resourceref.Ref, options resource.Options) error {
	startable := filterByType(dependents, m.supportsStartStop)

	for _, dep := range startable {
		owner, err := m.locator.GetResourcesManager(dep.Plugin, dep.ResourceType)
		if err != nil {
			return err
		}
		childList := owner.Start(rc.Context, dep.Name, options)
		release := rc.List.TrackNested(childList)
		<-childList.Done()
		release()
		if err := childList.Err(); err != nil {
			return err
		}
	}

	startList := adapter.Start(options)
	release := rc.List.TrackNested(startList)
	startList.Run(rc.Context, rc.Shared)
	<-startList.Done()
	release()
	return startList.Err()
}

func (m *Manager) supportsStartStop(plugin, resourceType string) bool {
	owner, err := m.locator.GetResourcesManager(plugin, resourceType)
	if err != nil {
		return false
	}
	return owner.typ.CRUD().SupportsStart()
}

func (m *Manager) stopFireAndForget(name string, options resource.Options) {
	tl := m.Stop(context.Background(), name, options)
	if err := tl.Wait(); err != nil && !tasklist.IsAborted(err) {
		m.log.WithError(err).WithField("name", name).Error("compensating stop failed")
	}
}
