// Package tasklist implements the structured, abortable, nestable pipeline
// runtime that every ResourcesManager operation is built from.
package tasklist

import (
	"context"
	"sync"
)

// EnabledFunc decides whether a Task is part of the pipeline at all. A nil
// EnabledFunc means always enabled.
type EnabledFunc func(ctx *Context) bool

// SkipFunc decides whether an enabled Task is skipped this run. A non-empty
// reason means skip; the reason is surfaced as a progress message.
type SkipFunc func(ctx *Context) (reason string, skip bool)

// RunFunc is a Task's body. Returning a non-nil TaskList delegates execution
// to it; the parent task is considered done once the nested list settles.
type RunFunc func(rc *RunContext) (*TaskList, error)

// Task is one step of a TaskList.
type Task struct {
	Title   string
	Enabled EnabledFunc
	Skip    SkipFunc
	Run     RunFunc
}

// RunContext is handed to a running Task: context.Context carries the
// cancellation signal for Abort, Shared carries the list's ctx bag.
type RunContext struct {
	context.Context
	Shared *Context
	List   *TaskList
}

// EventType distinguishes entries on a TaskList's progress stream.
type EventType string

const (
	EventProgress EventType = "progress"
	EventDone     EventType = "done"
	EventError    EventType = "error"
	EventAborted  EventType = "aborted"
)

// Event is one entry on the progress wire envelope described in the
// external interfaces: {type, persist?, message} for progress, {type} for
// done/aborted, {type, code, message} for error.
type Event struct {
	Type    EventType
	Persist bool
	Message string
	Code    string
}

// progressBuffer bounds how many undelivered progress events a TaskList
// will hold; once it is full, newly emitted events are dropped. Listeners that care
// about every message should drain Progress() promptly; terminal state
// (Wait, Err, onDone) never depends on the channel being drained.
const progressBuffer = 64

// Option configures a TaskList at construction time.
type Option func(*TaskList)

// Concurrent starts every task without waiting for its predecessor; all
// must settle before the list settles.
func Concurrent() Option { return func(tl *TaskList) { tl.concurrent = true } }

// Collapse is a display hint only; it carries no execution semantics.
func Collapse() Option { return func(tl *TaskList) { tl.collapse = true } }

// FreshContext starts the list with a new, empty ctx bag instead of
// inheriting the parent's.
func FreshContext() Option { return func(tl *TaskList) { tl.freshContext = true } }

// OnError registers a callback fired once, with the first task error and
// the list's ctx, when the list fails.
func OnError(fn func(err error, ctx *Context)) Option {
	return func(tl *TaskList) { tl.onError = fn }
}

// OnComplete registers a callback fired once all enabled, non-skipped tasks
// resolve successfully.
func OnComplete(fn func()) Option {
	return func(tl *TaskList) { tl.onComplete = fn }
}

// OnDone registers a callback fired exactly once when the list settles,
// reporting whether it failed (by error or by abort).
func OnDone(fn func(failed bool)) Option {
	return func(tl *TaskList) { tl.onDone = fn }
}

// TaskList is the unit of observable, abortable, composable asynchronous
// work described in the package doc.
type TaskList struct {
	tasks        []Task
	concurrent   bool
	collapse     bool
	freshContext bool

	onError    func(err error, ctx *Context)
	onComplete func()
	onDone     func(failed bool)

	ctx *Context

	events chan Event
	done   chan struct{}

	mu       sync.Mutex
	started  bool
	finished bool
	err      error
	aborted  bool
	cancel   context.CancelFunc
	nested   map[*TaskList]struct{}
}

// New constructs a TaskList. It does not start executing until Run is called.
func New(tasks []Task, opts ...Option) *TaskList {
	tl := &TaskList{
		tasks:  tasks,
		events: make(chan Event, progressBuffer),
		done:   make(chan struct{}),
		nested: make(map[*TaskList]struct{}),
	}
	for _, opt := range opts {
		opt(tl)
	}
	return tl
}

// Collapsed reports the display-only collapse hint.
func (tl *TaskList) Collapsed() bool { return tl.collapse }

// Run starts execution against parent (the ctx bag inherited unless
// FreshContext was set) under the cancellation of ctx. Run is idempotent:
// a second call on an already-started list is a no-op, matching the
// re-entrant-handle contract the owning ResourcesManager relies on.
func (tl *TaskList) Run(ctx context.Context, parent *Context) {
	tl.mu.Lock()
	if tl.started {
		tl.mu.Unlock()
		return
	}
	tl.started = true
	if tl.freshContext || parent == nil {
		tl.ctx = &Context{}
	} else {
		tl.ctx = parent
	}
	runCtx, cancel := context.WithCancel(ctx)
	tl.cancel = cancel
	tl.mu.Unlock()

	go tl.execute(runCtx)
}

// Abort cancels the list. The running task's cancellation signal fires,
// not-yet-started tasks are dropped, and any nested TaskList currently
// running is aborted recursively. onDone(true) follows.
func (tl *TaskList) Abort() {
	tl.mu.Lock()
	if tl.finished {
		tl.mu.Unlock()
		return
	}
	if tl.cancel != nil {
		tl.cancel()
	}
	nested := make([]*TaskList, 0, len(tl.nested))
	for n := range tl.nested {
		nested = append(nested, n)
	}
	tl.mu.Unlock()

	for _, n := range nested {
		n.Abort()
	}
}

// Progress returns the list's event stream. It is closed once the list
// settles.
func (tl *TaskList) Progress() <-chan Event { return tl.events }

// Done returns a channel closed once the list has settled.
func (tl *TaskList) Done() <-chan struct{} { return tl.done }

// Err returns the settled error, ErrAborted if the list was aborted, or nil
// on success. It blocks on nothing; call after Done is closed (or use Wait).
func (tl *TaskList) Err() error {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.aborted {
		return ErrAborted
	}
	return tl.err
}

// Wait blocks until the list settles and returns its terminal error, if any.
func (tl *TaskList) Wait() error {
	<-tl.done
	return tl.Err()
}

func (tl *TaskList) execute(ctx context.Context) {
	if tl.concurrent {
		tl.executeConcurrent(ctx)
	} else {
		tl.executeSequential(ctx)
	}
}

func (tl *TaskList) executeSequential(ctx context.Context) {
	for _, task := range tl.tasks {
		if cancelled(ctx) {
			tl.finish(nil, true)
			return
		}

		run, skip := tl.prepare(task)
		if !run {
			continue
		}
		if skip != "" {
			tl.emit(Event{Type: EventProgress, Message: skip})
			continue
		}

		tl.emit(Event{Type: EventProgress, Message: task.Title})

		if err := tl.runTask(ctx, task); err != nil {
			if cancelled(ctx) || IsAborted(err) {
				tl.finish(nil, true)
				return
			}
			tl.finish(err, false)
			return
		}
	}

	if cancelled(ctx) {
		tl.finish(nil, true)
		return
	}
	tl.finish(nil, false)
}

func (tl *TaskList) executeConcurrent(ctx context.Context) {
	taskCtx, cancelSiblings := context.WithCancel(ctx)
	defer cancelSiblings()

	var wg sync.WaitGroup
	var failMu sync.Mutex
	var failErr error

	for _, task := range tl.tasks {
		run, skip := tl.prepare(task)
		if !run {
			continue
		}
		if skip != "" {
			tl.emit(Event{Type: EventProgress, Message: skip})
			continue
		}

		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			tl.emit(Event{Type: EventProgress, Message: task.Title})

			err := tl.runTask(taskCtx, task)
			if err != nil && !cancelled(taskCtx) && !IsAborted(err) {
				failMu.Lock()
				if failErr == nil {
					failErr = err
				}
				failMu.Unlock()
				cancelSiblings()
			}
		}(task)
	}
	wg.Wait()

	if cancelled(ctx) {
		tl.finish(nil, true)
		return
	}
	if failErr != nil {
		tl.finish(failErr, false)
		return
	}
	tl.finish(nil, false)
}

// prepare evaluates Enabled/Skip for task. run is false if the task is
// disabled; skip is non-empty if the task is enabled but skipped.
func (tl *TaskList) prepare(task Task) (run bool, skip string) {
	if task.Enabled != nil && !task.Enabled(tl.ctx) {
		return false, ""
	}
	if task.Skip != nil {
		if reason, skipped := task.Skip(tl.ctx); skipped {
			return true, reason
		}
	}
	return true, ""
}

func (tl *TaskList) runTask(ctx context.Context, task Task) error {
	if task.Run == nil {
		return nil
	}

	rc := &RunContext{Context: ctx, Shared: tl.ctx, List: tl}
	nested, err := task.Run(rc)
	if err != nil {
		return err
	}
	if nested == nil {
		return nil
	}

	tl.trackNested(nested)
	defer tl.untrackNested(nested)

	nested.Run(ctx, tl.ctx)
	<-nested.Done()
	return nested.Err()
}

// TrackNested registers nested so Abort cascades into it, for task bodies
// that drive a nested TaskList manually instead of returning it from Run.
// The returned func must be called once the nested list settles.
func (tl *TaskList) TrackNested(nested *TaskList) func() {
	tl.trackNested(nested)
	return func() { tl.untrackNested(nested) }
}

func (tl *TaskList) trackNested(nested *TaskList) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	tl.nested[nested] = struct{}{}
}

func (tl *TaskList) untrackNested(nested *TaskList) {
	tl.mu.Lock()
	defer tl.mu.Unlock()
	delete(tl.nested, nested)
}

// Notify emits a progress message from within a running Task, for steps
// that need to surface a skip-with-reason mid-pipeline rather than through
// a Task's own Skip predicate (e.g. a guard evaluated only after earlier
// steps in the same Task have already run).
func (tl *TaskList) Notify(message string) {
	tl.emit(Event{Type: EventProgress, Message: message})
}

func (tl *TaskList) emit(e Event) {
	select {
	case tl.events <- e:
	default:
	}
}

func (tl *TaskList) finish(err error, aborted bool) {
	tl.mu.Lock()
	if tl.finished {
		tl.mu.Unlock()
		return
	}
	tl.finished = true
	tl.err = err
	tl.aborted = aborted
	ctx := tl.ctx
	tl.mu.Unlock()

	switch {
	case aborted:
		tl.emit(Event{Type: EventAborted})
		if tl.onDone != nil {
			tl.onDone(true)
		}
	case err != nil:
		if tl.onError != nil {
			tl.onError(err, ctx)
		}
		tl.emit(Event{Type: EventError, Code: errorCode(err), Message: err.Error()})
		if tl.onDone != nil {
			tl.onDone(true)
		}
	default:
		if tl.onComplete != nil {
			tl.onComplete()
		}
		tl.emit(Event{Type: EventDone})
		if tl.onDone != nil {
			tl.onDone(false)
		}
	}

	close(tl.events)
	close(tl.done)
}

func cancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
