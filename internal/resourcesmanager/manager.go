// Package resourcesmanager implements the ResourcesManager core: one
// instance per (plugin, resourceType), owning the lifecycle of every named
// resource of that type.
package resourcesmanager

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/nupi-ai/privnet/internal/depstore"
	"github.com/nupi-ai/privnet/internal/oplog"
	"github.com/nupi-ai/privnet/internal/portalloc"
	"github.com/nupi-ai/privnet/internal/ready"
	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/stream"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

const describeCacheSize = 256

// Locator resolves a cross-manager ResourceDependency to the Manager that
// owns it. Managers hold only this narrow borrow, never the full registry,
// to avoid cyclic ownership with the plugin manager (spec.md §9).
type Locator interface {
	GetResourcesManager(plugin, resourceType string) (*Manager, error)
}

// CreateHook runs concurrently as the last step of a successful create.
type CreateHook func(ctx context.Context, name string, options resource.Options) error

// Manager owns every named resource of one (plugin, resourceType).
type Manager struct {
	Plugin       string
	ResourceType string

	dataPath string
	master   resource.MasterAdapter
	ports    portalloc.Allocator
	locator  Locator
	typ      resource.Type

	log *logrus.Entry

	readyRegistry *ready.Registry
	deps          *depstore.Store

	mu                  sync.Mutex
	adapters            map[string]resource.Adapter
	started             map[string]bool
	directDependents    map[string][]resourceref.Ref
	resourceDependents  map[string][]resourceref.Ref
	createTasks         map[string]*tasklist.TaskList
	deleteTasks         map[string]*tasklist.TaskList
	startTasks          map[string]*tasklist.TaskList
	stopTasks           map[string]*tasklist.TaskList
	createHooks         []CreateHook

	update        *stream.Subject[struct{}]
	describeCache *lru.Cache[string, resource.DescribeRow]

	oplog *oplog.Log
}

// Options configures a Manager at construction time.
type Options struct {
	Plugin       string
	ResourceType string
	DataPath     string
	Master       resource.MasterAdapter
	Ports        portalloc.Allocator
	Locator      Locator
	Type         resource.Type
	Logger       *logrus.Logger
	// Oplog is an optional audit trail; every Create/Delete/Start/Stop run
	// is recorded to it once settled. Nil disables recording.
	Oplog *oplog.Log
}

// New constructs a Manager bound to opts. It does not touch disk; call
// LoadAdapters (or Init, for standalone use) to rehydrate.
func New(opts Options) *Manager {
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	cache, _ := lru.New[string, resource.DescribeRow](describeCacheSize)

	return &Manager{
		Plugin:             opts.Plugin,
		ResourceType:       opts.ResourceType,
		dataPath:           opts.DataPath,
		master:             opts.Master,
		ports:              opts.Ports,
		locator:            opts.Locator,
		typ:                opts.Type,
		log:                logger.WithFields(logrus.Fields{"plugin": opts.Plugin, "resourceType": opts.ResourceType}),
		readyRegistry:      ready.New(filepath.Join(opts.DataPath, "ready")),
		deps:               depstore.New(opts.DataPath),
		adapters:           make(map[string]resource.Adapter),
		started:            make(map[string]bool),
		directDependents:   make(map[string][]resourceref.Ref),
		resourceDependents: make(map[string][]resourceref.Ref),
		createTasks:        make(map[string]*tasklist.TaskList),
		deleteTasks:        make(map[string]*tasklist.TaskList),
		startTasks:         make(map[string]*tasklist.TaskList),
		stopTasks:          make(map[string]*tasklist.TaskList),
		update:             stream.NewSubject[struct{}](),
		describeCache:      cache,
		oplog:              opts.Oplog,
	}
}

// recordOp best-effort appends an operation's outcome to the oplog, if one
// was configured. Failures are logged, never surfaced to the caller — the
// oplog is a debugging aid, not a correctness dependency.
func (m *Manager) recordOp(operation, name string, startedAt time.Time, err error) {
	if m.oplog == nil {
		return
	}
	outcome := oplog.OutcomeDone
	message := ""
	switch {
	case tasklist.IsAborted(err):
		outcome = oplog.OutcomeAborted
	case err != nil:
		outcome = oplog.OutcomeError
		message = err.Error()
	}

	entry := oplog.Entry{
		Plugin:       m.Plugin,
		ResourceType: m.ResourceType,
		Name:         name,
		Operation:    operation,
		Outcome:      outcome,
		Message:      message,
		StartedAt:    startedAt,
		FinishedAt:   time.Now(),
	}
	if rerr := m.oplog.Record(context.Background(), entry); rerr != nil {
		m.log.WithError(rerr).WithField("name", name).Warn("oplog record failed")
	}
}

func (m *Manager) ref(name string) resourceref.Ref {
	return resourceref.Ref{Plugin: m.Plugin, ResourceType: m.ResourceType, Name: name}
}

// Init rehydrates this manager in isolation: LoadAdapters, then
// PropagateDependents against its own Locator, then NotifyUpdate. Multi-
// manager startups should instead drive LoadAdapters/PropagateDependents
// across every manager via a two-pass coordinator (internal/pluginmanager),
// so that a peer manager's init ordering never matters (spec.md §9).
func (m *Manager) Init(ctx context.Context) ([]*resource.InitError, error) {
	errs, err := m.LoadAdapters(ctx)
	if err != nil {
		return errs, err
	}
	m.PropagateDependents()
	m.NotifyUpdate()
	return errs, nil
}

// LoadAdapters enumerates ready names, rehydrates each adapter in parallel,
// and loads each one's persisted dependency edges. A duplicate ready name
// fails the whole init (invariant: duplicate names make on-disk state
// incoherent). A single resource's rehydrate failure is collected as an
// InitError and does not abort the others (invariant I6).
func (m *Manager) LoadAdapters(ctx context.Context) ([]*resource.InitError, error) {
	for _, dir := range []string{"resources", "ready", "dependents", "dependencies"} {
		if err := ensureDir(filepath.Join(m.dataPath, dir)); err != nil {
			return nil, err
		}
	}

	names, err := m.readyRegistry.GetAll()
	if err != nil {
		return nil, fmt.Errorf("resourcesmanager: list ready markers: %w", err)
	}
	if dup := firstDuplicate(names); dup != "" {
		return nil, fmt.Errorf("resourcesmanager: duplicate ready marker for %q", dup)
	}

	type outcome struct {
		name       string
		adapter    resource.Adapter
		dependents []resourceref.Ref
		err        error
	}
	results := make(chan outcome, len(names))

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			instance := resource.Instance{Name: name, DataPath: filepath.Join(m.dataPath, "resources", name)}
			adapter, err := m.master.InitResourceAdapter(ctx, instance)
			if err != nil {
				results <- outcome{name: name, err: err}
				return
			}
			ok, ferr := m.deps.VerifyDependenciesFingerprint(name)
			if ferr != nil {
				results <- outcome{name: name, err: ferr}
				return
			}
			if !ok {
				results <- outcome{name: name, err: fmt.Errorf("dependencies file for %q was modified outside the store", name)}
				return
			}
			dependents, derr := m.deps.Dependents(name)
			if derr != nil {
				results <- outcome{name: name, err: derr}
				return
			}
			results <- outcome{name: name, adapter: adapter, dependents: dependents}
		}(name)
	}
	wg.Wait()
	close(results)

	var initErrs []*resource.InitError
	m.mu.Lock()
	for o := range results {
		if o.err != nil {
			initErrs = append(initErrs, &resource.InitError{Name: o.name, Err: o.err})
			m.log.WithError(o.err).WithField("name", o.name).Warn("resourcesmanager: init failed for resource")
			continue
		}
		m.adapters[o.name] = o.adapter
		m.directDependents[o.name] = o.dependents
	}
	m.mu.Unlock()

	return initErrs, nil
}

// PropagateDependents publishes this manager's resources' own `dependencies`
// edges into the resourceDependents map of whichever manager owns each
// dependency (_addDependents in spec.md §4.5.7).
func (m *Manager) PropagateDependents() {
	m.mu.Lock()
	names := make([]string, 0, len(m.adapters))
	for name := range m.adapters {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		deps, err := m.deps.Dependencies(name)
		if err != nil {
			m.log.WithError(err).WithField("name", name).Warn("resourcesmanager: load dependencies failed")
			continue
		}
		m.addDependents(name, deps)
	}
}

// addDependents is _addDependents from spec.md §4.5.7: for each dependency
// this resource declared, tell the owning manager it has a new dependent.
func (m *Manager) addDependents(self string, dependencies []resourceref.Ref) {
	selfRef := m.ref(self)
	for _, dep := range dependencies {
		owner, err := m.locator.GetResourcesManager(dep.Plugin, dep.ResourceType)
		if err != nil {
			m.log.WithError(err).WithField("dependency", dep).Error("resourcesmanager: cannot resolve dependency owner")
			continue
		}
		owner.AddDependent(dep.Name, selfRef)
	}
}

// AddDependent appends dep to name's resourceDependents. No dedup at
// append time; _uniqueDeps-equivalent dedup happens wherever the list is
// consumed (resourceref.Dedup).
func (m *Manager) AddDependent(name string, dep resourceref.Ref) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resourceDependents[name] = append(m.resourceDependents[name], dep)
}

// NotifyUpdate signals update$, which resources$ reacts to.
func (m *Manager) NotifyUpdate() {
	m.update.Next(struct{}{})
}

// AddCreateHook appends hook to the list run concurrently at the end of
// every successful create.
func (m *Manager) AddCreateHook(hook CreateHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createHooks = append(m.createHooks, hook)
}

func (m *Manager) createHooksSnapshot() []CreateHook {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CreateHook(nil), m.createHooks...)
}

// StartedNames returns every resource name currently observed as started
// (I3), in no particular order. Used by the daemon entry point to stop
// every running resource of a manager gracefully before process exit.
func (m *Manager) StartedNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.started))
	for name, started := range m.started {
		if started {
			names = append(names, name)
		}
	}
	return names
}

// GetResourceAdapter returns name's adapter, or NotFoundError.
func (m *Manager) GetResourceAdapter(name string) (resource.Adapter, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.adapters[name]
	if !ok {
		return nil, &resource.NotFoundError{Name: name}
	}
	return a, nil
}

