package scriptadapter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest describes a scripted resource type: a name, for display, and the
// JS file implementing its create/start/stop/delete/describe hooks. It is
// the scripted-adapter analogue of the teacher's plugin.yaml manifest, cut
// down to the two fields this adapter contract actually needs.
type Manifest struct {
	Name   string `yaml:"name"`
	Script string `yaml:"script"`
}

// LoadManifest reads and validates a manifest at path, returning it along
// with the resolved, absolute path to its script file.
func LoadManifest(path string) (*Manifest, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("scriptadapter: read manifest %s: %w", path, err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, "", fmt.Errorf("scriptadapter: parse manifest %s: %w", path, err)
	}
	if m.Name == "" {
		return nil, "", fmt.Errorf("scriptadapter: manifest %s missing name", path)
	}
	if m.Script == "" {
		return nil, "", fmt.Errorf("scriptadapter: manifest %s missing script", path)
	}

	scriptPath := m.Script
	if !filepath.IsAbs(scriptPath) {
		scriptPath = filepath.Join(filepath.Dir(path), scriptPath)
	}
	if _, err := os.Stat(scriptPath); err != nil {
		return nil, "", fmt.Errorf("scriptadapter: script %s: %w", scriptPath, err)
	}

	return &m, scriptPath, nil
}
