package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/resourcesmanager"
	"github.com/nupi-ai/privnet/internal/runtime"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// managerService adapts a resourcesmanager.Manager into a runtime.Service so
// serve can drive its graceful shutdown through the same ServiceHost that
// would host other daemon-level services. Managers are already rehydrated
// by buildCore's InitAll by the time Start runs, so Start is a no-op; only
// Shutdown does real work, stopping every resource this manager currently
// has started so a real OS subprocess (internal/procadapter) never gets
// killed out from under itself by process exit.
type managerService struct {
	mgr *resourcesmanager.Manager
}

func (s *managerService) Start(ctx context.Context) error { return nil }

func (s *managerService) Shutdown(ctx context.Context) error {
	var firstErr error
	for _, name := range s.mgr.StartedNames() {
		tl := s.mgr.Stop(ctx, name, resource.Options{})
		if err := tl.Wait(); err != nil && !tasklist.IsAborted(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "serve",
		Short:         "Keep the instance's resources managers resident",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
}

// runServe rehydrates every configured manager and blocks until SIGINT/
// SIGTERM. There is no wire transport listening here (out of scope, per
// spec.md §1) — serve exists so operators can pre-warm a long-lived process
// whose managers a future transport layer would attach to, and so the
// oplog/adapter state stays consistent for the process lifetime rather than
// being rebuilt on every one-shot CLI call.
func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := buildCore(ctx, instanceName)
	if err != nil {
		return err
	}
	defer c.Close()

	pidFile := filepath.Join(c.paths.Home, "privnetd.pid")
	if err := runtime.WritePIDFile(pidFile, os.Getpid()); err != nil {
		return fmt.Errorf("privnetd: write pid file: %w", err)
	}
	defer runtime.RemovePIDFile(pidFile)

	host := runtime.NewServiceHost()
	for _, mgr := range c.registry.All() {
		mgr := mgr
		name := mgr.Plugin + "/" + mgr.ResourceType
		if err := host.Register(name, func(ctx context.Context) (runtime.Service, error) {
			return &managerService{mgr: mgr}, nil
		}); err != nil {
			return fmt.Errorf("privnetd: register service %q: %w", name, err)
		}
	}
	if err := host.Start(ctx); err != nil {
		return fmt.Errorf("privnetd: start service host: %w", err)
	}

	lifecycle := runtime.NewLifecycle()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		lifecycle.Shutdown()
	}()

	c.log.WithField("pid", os.Getpid()).WithField("managers", len(c.registry.All())).Info("privnetd: serving")

	<-lifecycle.Done()
	c.log.Info("privnetd: shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := host.Stop(stopCtx); err != nil {
		c.log.WithError(err).Warn("privnetd: service host stop reported an error")
	}
	return nil
}
