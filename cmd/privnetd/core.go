package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/nupi-ai/privnet/internal/config"
	"github.com/nupi-ai/privnet/internal/oplog"
	"github.com/nupi-ai/privnet/internal/pluginmanager"
	"github.com/nupi-ai/privnet/internal/portalloc"
	"github.com/nupi-ai/privnet/internal/resourcesmanager"
)

// core bundles everything a one-shot CLI invocation or the serve daemon
// needs to operate on an instance's ResourcesManagers. CLI subcommands
// build one per invocation and discard it afterward — there is no
// long-running daemon a CLI talks to over a wire transport (out of scope,
// per spec.md §1); every command loads the on-disk state fresh.
type core struct {
	paths    config.InstancePaths
	registry *pluginmanager.Registry
	oplog    *oplog.Log
	ports    portalloc.Allocator
	log      *logrus.Logger
}

// buildCore loads instanceName's config and constructs one Manager per
// configured (plugin, resourceType), registering each with a shared
// Registry so cross-manager dependency edges resolve, then rehydrates
// everything via Registry.InitAll.
func buildCore(ctx context.Context, instanceName string) (*core, error) {
	paths, err := config.EnsureInstanceDirs(instanceName)
	if err != nil {
		return nil, fmt.Errorf("privnetd: ensure instance dirs: %w", err)
	}

	cfg, err := config.Load(paths.ConfigDB)
	if err != nil {
		return nil, fmt.Errorf("privnetd: load config: %w", err)
	}

	oplogStore, err := oplog.Open(paths.OpLogDB)
	if err != nil {
		return nil, fmt.Errorf("privnetd: open oplog: %w", err)
	}

	logger := logrus.StandardLogger()
	ports := portalloc.NewLoopback()
	registry := pluginmanager.New()

	for _, mc := range cfg.Managers {
		master, err := buildMaster(mc)
		if err != nil {
			oplogStore.Close()
			return nil, err
		}

		dataPath := mc.DataPath
		if dataPath == "" {
			dataPath = paths.ManagerDataPath(mc.Plugin, mc.ResourceType)
		} else if !filepath.IsAbs(dataPath) {
			dataPath = filepath.Join(paths.Home, dataPath)
		}

		mgr := resourcesmanager.New(resourcesmanager.Options{
			Plugin:       mc.Plugin,
			ResourceType: mc.ResourceType,
			DataPath:     dataPath,
			Master:       master,
			Ports:        ports,
			Locator:      registry,
			Type:         newConfigType(mc),
			Logger:       logger,
			Oplog:        oplogStore,
		})
		registry.Register(mgr)
	}

	initErrs, err := registry.InitAll(ctx)
	if err != nil {
		oplogStore.Close()
		return nil, fmt.Errorf("privnetd: init managers: %w", err)
	}
	for key, errs := range initErrs {
		for _, e := range errs {
			logger.WithError(e).WithField("manager", key).Warn("privnetd: resource failed to rehydrate at startup")
		}
	}

	return &core{paths: paths, registry: registry, oplog: oplogStore, ports: ports, log: logger}, nil
}

func (c *core) Close() {
	if c.oplog != nil {
		c.oplog.Close()
	}
}

func (c *core) manager(plugin, resourceType string) (*resourcesmanager.Manager, error) {
	return c.registry.GetResourcesManager(plugin, resourceType)
}
