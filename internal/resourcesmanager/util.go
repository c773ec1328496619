package resourcesmanager

import (
	"fmt"
	"os"

	"github.com/nupi-ai/privnet/internal/resourceref"
)

func ensureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("resourcesmanager: mkdir %s: %w", path, err)
	}
	return nil
}

func firstDuplicate(names []string) string {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			return n
		}
		seen[n] = struct{}{}
	}
	return ""
}

func filterByType(refs []resourceref.Ref, supports func(plugin, resourceType string) bool) []resourceref.Ref {
	out := make([]resourceref.Ref, 0, len(refs))
	for _, r := range refs {
		if supports(r.Plugin, r.ResourceType) {
			out = append(out, r)
		}
	}
	return out
}
