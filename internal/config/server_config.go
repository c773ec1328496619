package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ManagerConfig describes one (plugin, resourceType) pair the daemon should
// host a ResourcesManager for.
type ManagerConfig struct {
	Plugin       string `yaml:"plugin"`
	ResourceType string `yaml:"resourceType"`
	// DataPath overrides the default <instance>/resources/<plugin>/<resourceType>
	// layout; relative paths are resolved against the instance home.
	DataPath string `yaml:"dataPath,omitempty"`

	// Adapter selects which built-in MasterResourceAdapter backs this
	// manager: "script" (internal/scriptadapter) or "proc"
	// (internal/procadapter).
	Adapter string `yaml:"adapter"`
	// ScriptManifest is the scripted-adapter's plugin.yaml path; required
	// when Adapter is "script".
	ScriptManifest string `yaml:"scriptManifest,omitempty"`
	// ProcBinary is the subprocess adapter's binary path; required when
	// Adapter is "proc".
	ProcBinary string `yaml:"procBinary,omitempty"`
	// ProcInteractive attaches the subprocess to a pty instead of plain
	// pipes; only meaningful when Adapter is "proc".
	ProcInteractive bool `yaml:"procInteractive,omitempty"`

	// SupportsStart declares whether this resource type has a start/stop
	// pair; resource types without one (e.g. a wallet) fail Start/Stop with
	// NoStartError/NoStopError.
	SupportsStart bool `yaml:"supportsStart,omitempty"`
	// StartOnCreate starts a resource automatically right after create.
	StartOnCreate bool `yaml:"startOnCreate,omitempty"`
}

// PortRange is a min/max port pair decoded from privnetd.yaml. The default
// loopback PortAllocator does not read it: it hands out whatever free port
// the OS assigns.
type PortRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// ServerConfig is the top-level privnetd.yaml document.
type ServerConfig struct {
	Instance  string          `yaml:"instance,omitempty"`
	Managers  []ManagerConfig `yaml:"managers"`
	PortRange PortRange       `yaml:"portRange,omitempty"`
}

// Load decodes a ServerConfig from the given path. A missing file returns a
// ServerConfig with an empty Managers list rather than an error, so a fresh
// instance can be started with no prior configuration.
func Load(path string) (*ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ServerConfig{}, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg ServerConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes the ServerConfig to path, creating parent directories as
// needed. Writes go through a temp file and rename so a crash mid-write
// never leaves a truncated config on disk.
func Save(path string, cfg *ServerConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: rename temp to %s: %w", path, err)
	}
	return nil
}
