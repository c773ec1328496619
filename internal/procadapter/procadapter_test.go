package procadapter

import (
	"context"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/nupi-ai/privnet/internal/resource"
)

func waitTL(t *testing.T, tl interface{ Done() <-chan struct{} }) {
	t.Helper()
	select {
	case <-tl.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for task list")
	}
}

func sleepBinary(t *testing.T) string {
	t.Helper()
	path, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("sleep binary not available on PATH")
	}
	return path
}

func TestInitResourceAdapterRehydratesSpawnSpec(t *testing.T) {
	bin := sleepBinary(t)
	master := NewMaster(Config{Binary: bin, GracefulTimeout: 500 * time.Millisecond})
	dataPath := filepath.Join(t.TempDir(), "node1")

	instance := resource.Instance{Name: "node1", DataPath: dataPath}
	createList := master.CreateResourceAdapter(instance, resource.Options{"args": []string{"30"}})
	createList.Run(context.Background(), nil)
	waitTL(t, createList)
	if err := createList.Err(); err != nil {
		t.Fatalf("create: %v", err)
	}

	rehydrated, err := master.InitResourceAdapter(context.Background(), instance)
	if err != nil {
		t.Fatalf("InitResourceAdapter: %v", err)
	}

	startList := rehydrated.Start(resource.Options{})
	startList.Run(context.Background(), nil)
	waitTL(t, startList)
	if err := startList.Err(); err != nil {
		t.Fatalf("start: %v", err)
	}

	row := rehydrated.Describe()
	if row.Fields["state"] != "started" {
		t.Fatalf("expected started, got %+v", row.Fields)
	}

	stopList := rehydrated.Stop(resource.Options{})
	stopList.Run(context.Background(), nil)
	waitTL(t, stopList)
	if err := stopList.Err(); err != nil {
		t.Fatalf("stop: %v", err)
	}

	row = rehydrated.Describe()
	if row.Fields["state"] != "stopped" {
		t.Fatalf("expected stopped after Stop, got %+v", row.Fields)
	}

	if err := rehydrated.Destroy(context.Background()); err != nil {
		t.Fatalf("destroy: %v", err)
	}
}

func TestDestroyToleratesNeverStarted(t *testing.T) {
	bin := sleepBinary(t)
	master := NewMaster(Config{Binary: bin})
	instance := resource.Instance{Name: "node2", DataPath: filepath.Join(t.TempDir(), "node2")}

	createList := master.CreateResourceAdapter(instance, resource.Options{"args": []string{"30"}})
	createList.Run(context.Background(), nil)
	waitTL(t, createList)

	rehydrated, err := master.InitResourceAdapter(context.Background(), instance)
	if err != nil {
		t.Fatalf("InitResourceAdapter: %v", err)
	}
	if err := rehydrated.Destroy(context.Background()); err != nil {
		t.Fatalf("destroy on never-started adapter: %v", err)
	}
}
