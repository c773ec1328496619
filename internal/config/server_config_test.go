package config

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsEmptyConfig(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(cfg.Managers) != 0 {
		t.Errorf("expected empty Managers, got %v", cfg.Managers)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "privnetd.yaml")
	cfg := &ServerConfig{
		Instance: "default",
		Managers: []ManagerConfig{
			{Plugin: "neo-one", ResourceType: "node"},
			{Plugin: "neo-one", ResourceType: "wallet"},
		},
		PortRange: PortRange{Min: 30000, Max: 31000},
	}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if got.Instance != cfg.Instance {
		t.Errorf("Instance = %q; want %q", got.Instance, cfg.Instance)
	}
	if len(got.Managers) != 2 {
		t.Fatalf("Managers = %v; want 2 entries", got.Managers)
	}
	if got.PortRange != cfg.PortRange {
		t.Errorf("PortRange = %+v; want %+v", got.PortRange, cfg.PortRange)
	}
}
