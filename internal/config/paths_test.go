package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPrivnetHome(t *testing.T) {
	home := GetPrivnetHome()

	userHome, _ := os.UserHomeDir()
	expected := filepath.Join(userHome, ".privnet")

	if home != expected {
		t.Errorf("GetPrivnetHome() = %s; want %s", home, expected)
	}
}

func TestGetInstancePaths(t *testing.T) {
	paths := GetInstancePaths("")

	if !strings.Contains(paths.ConfigDB, "instances/default/privnetd.yaml") {
		t.Errorf("ConfigDB path incorrect: %s", paths.ConfigDB)
	}
	if !strings.Contains(paths.Socket, "instances/default/privnetd.sock") {
		t.Errorf("Socket path incorrect: %s", paths.Socket)
	}
	if !strings.Contains(paths.Lock, "instances/default/daemon.lock") {
		t.Errorf("Lock path incorrect: %s", paths.Lock)
	}
	if !strings.Contains(paths.Home, "instances/default") {
		t.Errorf("Home path incorrect: %s", paths.Home)
	}
	if !strings.Contains(paths.BinDir, ".privnet/bin") {
		t.Errorf("BinDir path incorrect: %s", paths.BinDir)
	}
}

func TestGetInstancePathsEmptyNameMeansDefault(t *testing.T) {
	paths1 := GetInstancePaths("")
	paths2 := GetInstancePaths("default")
	paths3 := GetInstancePaths("custom")

	if paths1.ConfigDB != paths2.ConfigDB {
		t.Error("Empty string and 'default' should give same paths")
	}

	if paths1.ConfigDB == paths3.ConfigDB {
		t.Error("Custom instance name should give a different path")
	}
}

func TestManagerDataPath(t *testing.T) {
	paths := GetInstancePaths("")
	got := paths.ManagerDataPath("neo-one", "node")
	want := filepath.Join(paths.Resources, "neo-one", "node")
	if got != want {
		t.Errorf("ManagerDataPath() = %s; want %s", got, want)
	}
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		input    string
		contains string
	}{
		{"~/test", "/test"},
		{"~", ""},
		{"/absolute/path", "/absolute/path"},
		{"", ""},
	}

	for _, tt := range tests {
		result := ExpandPath(tt.input)
		if tt.input == "~" {
			home, _ := os.UserHomeDir()
			if result != home {
				t.Errorf("ExpandPath(%q) = %q; want home directory", tt.input, result)
			}
		} else if tt.input != "" && !strings.Contains(result, tt.contains) {
			t.Errorf("ExpandPath(%q) = %q; should contain %q", tt.input, result, tt.contains)
		}
	}
}
