package resourcesmanager

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// Create builds name's adapter, persists it, optionally starts it, and
// finally runs every registered CreateHook (spec.md §4.5.2). Re-entering
// with a create already in flight for name returns the same TaskList
// reference (P4); calling on an existing resource returns an immediately
// skipped one.
func (m *Manager) Create(ctx context.Context, name string, options resource.Options) *tasklist.TaskList {
	m.mu.Lock()
	if existing, ok := m.createTasks[name]; ok {
		m.mu.Unlock()
		return existing
	}
	if _, exists := m.adapters[name]; exists {
		m.mu.Unlock()
		return m.skipTaskList(ctx, "create", name, "already exists")
	}

	dataPath := filepath.Join(m.dataPath, "resources", name)
	startedAt := time.Now()
	var tl *tasklist.TaskList
	tl = tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("create %s", name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				return nil, m.runCreate(rc, name, dataPath, options)
			},
		},
	}, tasklist.FreshContext(), tasklist.OnDone(func(failed bool) {
		m.mu.Lock()
		delete(m.createTasks, name)
		m.mu.Unlock()
		m.NotifyUpdate()
		m.recordOp("create", name, startedAt, tl.Err())
	}))

	m.createTasks[name] = tl
	m.mu.Unlock()

	tl.Run(ctx, nil)
	return tl
}

// runCreate implements the pipeline body. Finalize always runs, even when
// the adapter construction step failed, so a partial adapter can still be
// cleaned up by the compensating delete (spec.md §9, adapter contract
// note: createResourceAdapter's product must tolerate destroy()/delete()
// even when start was never called).
func (m *Manager) runCreate(rc *tasklist.RunContext, name, dataPath string, options resource.Options) error {
	instance := resource.Instance{Name: name, DataPath: dataPath}
	nested := m.master.CreateResourceAdapter(instance, options)
	release := rc.List.TrackNested(nested)
	nested.Run(rc.Context, rc.Shared)
	<-nested.Done()
	release()
	createErr := nested.Err()

	m.finalizeCreate(name, rc.Shared)

	if createErr != nil {
		go m.deleteFireAndForget(name, options)
		return createErr
	}

	crud := m.typ.CRUD()
	if crud.Create.StartOnCreate && crud.SupportsStart() {
		startList := m.Start(rc.Context, name, options)
		release := rc.List.TrackNested(startList)
		<-startList.Done()
		release()
		if err := startList.Err(); err != nil {
			go m.deleteFireAndForget(name, options)
			return err
		}
	}

	hooks := m.createHooksSnapshot()
	if len(hooks) > 0 {
		hookList := m.buildHookTaskList(name, options, hooks)
		release := rc.List.TrackNested(hookList)
		hookList.Run(rc.Context, nil)
		<-hookList.Done()
		release()
		if err := hookList.Err(); err != nil {
			return err
		}
	}

	return nil
}

// finalizeCreate installs whatever the create pipeline produced, propagates
// dependency edges, and — only once the adapter's own resource stream has
// confirmed a snapshot — persists the ready marker and dependency files.
func (m *Manager) finalizeCreate(name string, ctx *tasklist.Context) {
	adapter, _ := ctx.ResourceAdapter().(resource.Adapter)
	dependents := ctx.Dependents()
	dependencies := ctx.Dependencies()

	m.mu.Lock()
	if adapter != nil {
		m.adapters[name] = adapter
	}
	m.directDependents[name] = dependents
	m.describeCache.Remove(name)
	m.mu.Unlock()

	m.addDependents(name, dependencies)
	m.NotifyUpdate()

	if adapter == nil {
		return
	}

	ch, unsub := adapter.Resources().Subscribe()
	<-ch
	unsub()

	if err := m.readyRegistry.Write(name); err != nil {
		m.log.WithError(err).WithField("name", name).Error("write ready marker failed")
	}
	if err := m.deps.WriteDependencies(name, dependencies); err != nil {
		m.log.WithError(err).WithField("name", name).Error("persist dependencies failed")
	}
	if err := m.deps.WriteDependents(name, dependents); err != nil {
		m.log.WithError(err).WithField("name", name).Error("persist dependents failed")
	}
}

func (m *Manager) deleteFireAndForget(name string, options resource.Options) {
	tl := m.Delete(context.Background(), name, options)
	if err := tl.Wait(); err != nil && !tasklist.IsAborted(err) {
		m.log.WithError(err).WithField("name", name).Error("compensating delete failed")
	}
}

func (m *Manager) buildHookTaskList(name string, options resource.Options, hooks []CreateHook) *tasklist.TaskList {
	tasks := make([]tasklist.Task, 0, len(hooks))
	for i, hook := range hooks {
		i, hook := i, hook
		tasks = append(tasks, tasklist.Task{
			Title: fmt.Sprintf("create hook %d for %s", i, name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				return nil, hook(rc.Context, name, options)
			},
		})
	}
	return tasklist.New(tasks, tasklist.Concurrent())
}

func (m *Manager) skipTaskList(ctx context.Context, verb, name, reason string) *tasklist.TaskList {
	tl := tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("%s %s", verb, name),
			Skip:  func(*tasklist.Context) (string, bool) { return reason, true },
		},
	})
	tl.Run(ctx, nil)
	return tl
}

func (m *Manager) failedTaskList(ctx context.Context, verb, name string, err error) *tasklist.TaskList {
	tl := tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("%s %s", verb, name),
			Run:   func(rc *tasklist.RunContext) (*tasklist.TaskList, error) { return nil, err },
		},
	})
	tl.Run(ctx, nil)
	return tl
}
