// Package resourceref defines the (plugin, resourceType, name) triple used
// throughout the core to refer to a resource owned by some other manager,
// without pulling in the resource or resourcesmanager packages themselves.
package resourceref

// Ref identifies a resource by the manager that owns it and its compound
// name within that manager. Equality is structural over all three fields.
type Ref struct {
	Plugin       string
	ResourceType string
	Name         string
}

// Equal reports whether r and other name the same resource.
func (r Ref) Equal(other Ref) bool {
	return r.Plugin == other.Plugin && r.ResourceType == other.ResourceType && r.Name == other.Name
}

// Dedup returns refs with structural duplicates removed, preserving the
// order of first occurrence.
func Dedup(refs []Ref) []Ref {
	out := make([]Ref, 0, len(refs))
	for _, r := range refs {
		found := false
		for _, kept := range out {
			if kept.Equal(r) {
				found = true
				break
			}
		}
		if !found {
			out = append(out, r)
		}
	}
	return out
}
