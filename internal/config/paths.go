package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultInstance is the logical server instance name used when the
	// caller doesn't request a specific one.
	DefaultInstance = "default"
)

// InstancePaths contains the directory layout for one privnet daemon
// instance. A fresh instance can host any number of (plugin, resourceType)
// ResourcesManagers; each gets its own subdirectory under Resources.
type InstancePaths struct {
	Home      string // instance home directory
	ConfigDB  string // privnetd.yaml server configuration file
	OpLogDB   string // sqlite operation history database
	Socket    string // reserved for the (out-of-scope) wire transport
	Lock      string // daemon lock file
	Logs      string // logs directory
	Resources string // root under which each manager gets <plugin>/<resourceType>/
	TempDir   string // scratch space for installers/adapters
	BinDir    string // shared plugin binaries directory
}

// GetInstancePaths returns the directory layout for a given instance.
// Empty instance name defaults to "default".
func GetInstancePaths(instanceName string) InstancePaths {
	if instanceName == "" {
		instanceName = DefaultInstance
	}

	instanceDir := filepath.Join(GetPrivnetHome(), "instances", instanceName)

	return InstancePaths{
		Home:      instanceDir,
		ConfigDB:  filepath.Join(instanceDir, "privnetd.yaml"),
		OpLogDB:   filepath.Join(instanceDir, "oplog.db"),
		Socket:    filepath.Join(instanceDir, "privnetd.sock"),
		Lock:      filepath.Join(instanceDir, "daemon.lock"),
		Logs:      filepath.Join(instanceDir, "logs"),
		Resources: filepath.Join(instanceDir, "resources"),
		TempDir:   filepath.Join(instanceDir, "tmp"),
		BinDir:    filepath.Join(GetPrivnetHome(), "bin"),
	}
}

// ManagerDataPath returns the per-(plugin, resourceType) dataPath a
// ResourcesManager is bound to: <instance>/resources/<plugin>/<resourceType>.
func (p InstancePaths) ManagerDataPath(plugin, resourceType string) string {
	return filepath.Join(p.Resources, plugin, resourceType)
}

// GetPrivnetHome returns the privnet home directory (~/.privnet).
func GetPrivnetHome() string {
	userHome, _ := os.UserHomeDir()
	return filepath.Join(userHome, ".privnet")
}

// ExpandPath expands a leading ~ to the user home directory.
func ExpandPath(path string) string {
	if len(path) == 0 {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) == 1 {
			return home
		}
		if path[1] == '/' || path[1] == os.PathSeparator {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}

// EnsureInstanceDirs creates the directory structure for the given instance
// if it does not already exist.
func EnsureInstanceDirs(instanceName string) (InstancePaths, error) {
	paths := GetInstancePaths(instanceName)

	dirs := []string{
		paths.Home,
		paths.Logs,
		paths.Resources,
		paths.TempDir,
		paths.BinDir,
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return paths, err
		}
	}

	return paths, nil
}
