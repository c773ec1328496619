// Package procadapter is an example MasterResourceAdapter that supervises a
// real OS subprocess per resource instance, standing in for a
// blockchain-node-style resource (spec.md §1's running example) without
// implementing any blockchain logic itself.
package procadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourceref"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// DefaultGracefulTimeout mirrors the teacher's adapter shutdown grace period.
const DefaultGracefulTimeout = 10 * time.Second

// Config fixes the binary every resource instance of this type runs; only
// the per-instance argv/env/dependency set varies (supplied via Options at
// Create time).
type Config struct {
	Binary          string
	GracefulTimeout time.Duration
	// Interactive attaches the subprocess to a pty instead of plain pipes —
	// useful for adapters whose binary expects a tty (e.g. an interactive
	// node console).
	Interactive bool
}

// spawnSpec is the per-instance argv/env captured at create time and
// persisted to instance.DataPath so a later InitResourceAdapter rehydrate
// knows how to respawn the same command, since the OS process itself never
// survives a daemon restart.
type spawnSpec struct {
	Args []string `json:"args"`
	Env  []string `json:"env"`
}

// Master implements resource.MasterAdapter over Config.Binary.
type Master struct {
	cfg      Config
	launcher launcher
}

// NewMaster builds a Master bound to cfg. A nil/zero GracefulTimeout falls
// back to DefaultGracefulTimeout.
func NewMaster(cfg Config) *Master {
	if cfg.GracefulTimeout <= 0 {
		cfg.GracefulTimeout = DefaultGracefulTimeout
	}
	var l launcher
	if cfg.Interactive {
		l = ptyLauncher{}
	} else {
		l = execLauncher{}
	}
	return &Master{cfg: cfg, launcher: l}
}

// CreateResourceAdapter builds a fresh, not-yet-started Adapter for
// instance. options may carry "args" ([]string), "env" ([]string), and
// "dependencies" ([]resourceref.Ref) — the latter becomes the dependency
// edge set a ResourcesManager persists and propagates (spec.md §4.5.7).
func (m *Master) CreateResourceAdapter(instance resource.Instance, options resource.Options) *tasklist.TaskList {
	return tasklist.New([]tasklist.Task{
		{
			Title: fmt.Sprintf("spawn process adapter for %s", instance.Name),
			Run: func(rc *tasklist.RunContext) (*tasklist.TaskList, error) {
				spec := spawnSpecFromOptions(options)
				if err := os.MkdirAll(instance.DataPath, 0o755); err != nil {
					return nil, fmt.Errorf("procadapter: create data dir: %w", err)
				}
				if err := writeSpawnSpec(instance.DataPath, spec); err != nil {
					return nil, err
				}

				adapter := newAdapter(instance, m.cfg, m.launcher, spec)
				rc.Shared.SetResourceAdapter(adapter)
				rc.Shared.SetDependencies(dependenciesFromOptions(options))
				return nil, nil
			},
		},
	})
}

// InitResourceAdapter rehydrates an Adapter for a resource whose process did
// not survive the last restart; its state stream starts in StateStopped
// until Start is called again.
func (m *Master) InitResourceAdapter(ctx context.Context, instance resource.Instance) (resource.Adapter, error) {
	spec, err := readSpawnSpec(instance.DataPath)
	if err != nil {
		return nil, err
	}
	return newAdapter(instance, m.cfg, m.launcher, spec), nil
}

func spawnSpecFromOptions(options resource.Options) spawnSpec {
	var spec spawnSpec
	if args, ok := options["args"].([]string); ok {
		spec.Args = args
	}
	if env, ok := options["env"].([]string); ok {
		spec.Env = env
	}
	return spec
}

func dependenciesFromOptions(options resource.Options) []resourceref.Ref {
	deps, _ := options["dependencies"].([]resourceref.Ref)
	return deps
}

func writeSpawnSpec(dataPath string, spec spawnSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("procadapter: marshal spawn spec: %w", err)
	}
	path := filepath.Join(dataPath, "spawn.json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("procadapter: write spawn spec: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("procadapter: rename spawn spec: %w", err)
	}
	return nil
}

func readSpawnSpec(dataPath string) (spawnSpec, error) {
	data, err := os.ReadFile(filepath.Join(dataPath, "spawn.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return spawnSpec{}, nil
		}
		return spawnSpec{}, fmt.Errorf("procadapter: read spawn spec: %w", err)
	}
	var spec spawnSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return spawnSpec{}, fmt.Errorf("procadapter: unmarshal spawn spec: %w", err)
	}
	return spec, nil
}
