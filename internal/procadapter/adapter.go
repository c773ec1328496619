package procadapter

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/stream"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// adapter is the per-instance resource.Adapter driving one OS subprocess.
type adapter struct {
	instance resource.Instance
	cfg      Config
	launcher launcher
	spec     spawnSpec

	mu      sync.Mutex
	proc    processHandle
	running bool

	resources *stream.Subject[resource.Resource]
}

func newAdapter(instance resource.Instance, cfg Config, l launcher, spec spawnSpec) *adapter {
	a := &adapter{
		instance:  instance,
		cfg:       cfg,
		launcher:  l,
		spec:      spec,
		resources: stream.NewSubject[resource.Resource](),
	}
	a.resources.Next(a.snapshot())
	return a
}

func (a *adapter) snapshot() resource.Resource {
	a.mu.Lock()
	defer a.mu.Unlock()
	state := resource.StateStopped
	attrs := map[string]any{"binary": a.cfg.Binary}
	if a.running {
		state = resource.StateStarted
		attrs["pid"] = a.proc.PID()
	}
	return resource.Resource{
		Name:       a.instance.Name,
		BaseName:   resource.SimpleName(a.instance.Name),
		State:      state,
		Attributes: attrs,
	}
}

// Start launches the subprocess. A no-op if already running.
func (a *adapter) Start(resource.Options) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("start process %s", a.instance.Name),
			Run: func(*tasklist.RunContext) (*tasklist.TaskList, error) {
				a.mu.Lock()
				if a.running {
					a.mu.Unlock()
					return nil, nil
				}
				a.mu.Unlock()

				logPath := a.instance.DataPath + "/process.log"
				logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
				if err != nil {
					return nil, fmt.Errorf("procadapter: open log file: %w", err)
				}

				proc, err := a.launcher.Launch(a.cfg.Binary, a.spec.Args, a.spec.Env, a.instance.DataPath, logFile, logFile)
				if err != nil {
					logFile.Close()
					return nil, err
				}

				a.mu.Lock()
				a.proc = proc
				a.running = true
				a.mu.Unlock()

				go a.watchExit(proc, logFile)

				a.resources.Next(a.snapshot())
				return nil, nil
			},
		},
	})
}

// watchExit marks the adapter stopped once the subprocess exits on its own,
// so an externally-killed process is reflected on the resource stream
// without waiting for the next Stop call.
func (a *adapter) watchExit(proc processHandle, logFile *os.File) {
	<-proc.Done()
	logFile.Close()
	a.mu.Lock()
	if a.proc == proc {
		a.running = false
	}
	a.mu.Unlock()
	a.resources.Next(a.snapshot())
}

// Stop gracefully terminates the subprocess.
func (a *adapter) Stop(resource.Options) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("stop process %s", a.instance.Name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				a.mu.Lock()
				proc := a.proc
				running := a.running
				gracefulTimeout := a.cfg.GracefulTimeout
				a.mu.Unlock()

				if !running || proc == nil {
					return nil, nil
				}

				err := proc.Stop(rc.Context, gracefulTimeout)

				a.mu.Lock()
				a.running = false
				a.mu.Unlock()
				a.resources.Next(a.snapshot())

				return nil, err
			},
		},
	})
}

// Delete removes the instance's on-disk data (spawn spec + logs).
func (a *adapter) Delete(resource.Options) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("delete process data for %s", a.instance.Name),
			Run: func(*tasklist.RunContext) (*tasklist.TaskList, error) {
				if err := os.RemoveAll(a.instance.DataPath); err != nil {
					return nil, fmt.Errorf("procadapter: remove data dir: %w", err)
				}
				return nil, nil
			},
		},
	})
}

// Destroy kills a still-running subprocess and completes the resource
// stream; it tolerates being called on an adapter whose Start was never
// called (spec.md §9 open question 1).
func (a *adapter) Destroy(ctx context.Context) error {
	a.mu.Lock()
	proc := a.proc
	running := a.running
	a.mu.Unlock()

	if running && proc != nil {
		if err := proc.Stop(ctx, a.cfg.GracefulTimeout); err != nil {
			return err
		}
	}

	a.mu.Lock()
	a.running = false
	a.mu.Unlock()
	a.resources.Complete()
	return nil
}

func (a *adapter) Resources() *stream.Subject[resource.Resource] { return a.resources }

func (a *adapter) Describe() resource.DescribeRow {
	a.mu.Lock()
	defer a.mu.Unlock()
	fields := map[string]string{"binary": a.cfg.Binary}
	if a.running {
		fields["state"] = string(resource.StateStarted)
		fields["pid"] = strconv.Itoa(a.proc.PID())
	} else {
		fields["state"] = string(resource.StateStopped)
	}
	return resource.DescribeRow{Name: a.instance.Name, Fields: fields}
}
