package resource

// Names supplies display metadata for one CRUD verb, mirroring the
// upper/lower/ed/ing/capital forms the CLI layer needs to render progress
// messages ("Creating alice", "Created alice", …).
type Names struct {
	Upper   string
	Lower   string
	Ed      string
	Ing     string
	Capital string
}

// CreateSpec is the create verb's metadata, plus whether a freshly created
// resource should be started automatically.
type CreateSpec struct {
	Names         Names
	StartOnCreate bool
}

// CRUD describes which operations a resource type supports. Start/Stop/
// Describe are optional: a nil value means the operation is unsupported and
// ResourcesManager.Start/Stop must fail with NoStartError/NoStopError.
type CRUD struct {
	Create   CreateSpec
	Start    *Names
	Stop     *Names
	Delete   Names
	Describe *Names
}

// SupportsStart reports whether both halves of the start/stop pair are
// declared; per spec.md §4.5.4 start and stop are required together.
func (c CRUD) SupportsStart() bool {
	return c.Start != nil && c.Stop != nil
}

// Type is the per-resource-type descriptor a ResourcesManager is bound to.
type Type interface {
	CRUD() CRUD
	// FilterResources narrows a resource snapshot list for getResources$;
	// options is the same generic bag used elsewhere in the core.
	FilterResources(resources []Resource, options Options) []Resource
}
