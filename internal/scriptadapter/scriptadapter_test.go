package scriptadapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

const testScript = `
module.exports = {
  create: function(name, options) {
    return { dependencies: [{ plugin: "acme", resourceType: "network", name: "net1" }] };
  },
  start: function(name, options) {},
  stop: function(name, options) {},
  delete: function(name, options) {},
  describe: function(name) {
    return { flavor: "sidecar" };
  },
};
`

func writeTestPlugin(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "sidecar.js")
	if err := os.WriteFile(scriptPath, []byte(testScript), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	manifestPath := filepath.Join(dir, "plugin.yaml")
	manifestSrc := "name: sidecar\nscript: sidecar.js\n"
	if err := os.WriteFile(manifestPath, []byte(manifestSrc), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	return manifestPath
}

func waitDone(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task list")
	}
}

func TestCreateRunsScriptAndReturnsDependencies(t *testing.T) {
	manifestPath := writeTestPlugin(t)
	master, err := NewMaster(manifestPath)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	instance := resource.Instance{Name: "sidecar1", DataPath: t.TempDir()}
	createList := master.CreateResourceAdapter(instance, resource.Options{})
	shared := &tasklist.Context{}
	createList.Run(context.Background(), shared)
	waitDone(t, createList.Done())
	if err := createList.Err(); err != nil {
		t.Fatalf("create: %v", err)
	}

	deps := shared.Dependencies()
	if len(deps) != 1 || deps[0].Plugin != "acme" || deps[0].ResourceType != "network" || deps[0].Name != "net1" {
		t.Fatalf("expected dependency acme/network/net1, got %v", deps)
	}
}

func TestStartStopDescribeLifecycle(t *testing.T) {
	manifestPath := writeTestPlugin(t)
	master, err := NewMaster(manifestPath)
	if err != nil {
		t.Fatalf("NewMaster: %v", err)
	}

	instance := resource.Instance{Name: "sidecar1", DataPath: t.TempDir()}
	a, err := master.InitResourceAdapter(context.Background(), instance)
	if err != nil {
		t.Fatalf("InitResourceAdapter: %v", err)
	}

	startList := a.Start(resource.Options{})
	startList.Run(context.Background(), nil)
	waitDone(t, startList.Done())
	if err := startList.Err(); err != nil {
		t.Fatalf("start: %v", err)
	}

	row := a.Describe()
	if row.Fields["state"] != "started" {
		t.Fatalf("expected started, got %+v", row.Fields)
	}
	if row.Fields["flavor"] != "sidecar" {
		t.Fatalf("expected describe hook merged, got %+v", row.Fields)
	}

	stopList := a.Stop(resource.Options{})
	stopList.Run(context.Background(), nil)
	waitDone(t, stopList.Done())
	if err := stopList.Err(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	if err := a.Destroy(context.Background()); err != nil {
		t.Fatalf("destroy: %v", err)
	}
}

func TestNewMasterRejectsMissingRequiredHook(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "broken.js")
	if err := os.WriteFile(scriptPath, []byte("module.exports = { start: function(){} };"), 0o644); err != nil {
		t.Fatalf("write script: %v", err)
	}
	manifestPath := filepath.Join(dir, "plugin.yaml")
	if err := os.WriteFile(manifestPath, []byte("name: broken\nscript: broken.js\n"), 0o644); err != nil {
		t.Fatalf("write manifest: %v", err)
	}

	if _, err := NewMaster(manifestPath); err == nil {
		t.Fatal("expected error for script missing required create/delete hooks")
	}
}
