package main

import (
	"fmt"

	"github.com/nupi-ai/privnet/internal/config"
	"github.com/nupi-ai/privnet/internal/resource"
)

// configType is the resource.Type every config-declared ResourcesManager is
// bound to. It carries no filtering logic of its own — FilterResources is
// the identity function, since privnetd's built-in adapter kinds don't need
// per-call attribute narrowing (a real plugin-authored type would replace
// this with its own Type implementation).
type configType struct {
	crud resource.CRUD
}

func newConfigType(mc config.ManagerConfig) configType {
	names := func(verb string) resource.Names {
		return resource.Names{
			Upper:   verb,
			Lower:   verb,
			Ed:      verb + "d",
			Ing:     verb + "ing",
			Capital: verb,
		}
	}

	crud := resource.CRUD{
		Create: resource.CreateSpec{
			Names:         names("create"),
			StartOnCreate: mc.StartOnCreate,
		},
		Delete: names("delete"),
	}
	if mc.SupportsStart {
		start := names("start")
		stop := names("stop")
		crud.Start = &start
		crud.Stop = &stop
	}
	describe := names("describe")
	crud.Describe = &describe

	return configType{crud: crud}
}

func (t configType) CRUD() resource.CRUD { return t.crud }

func (t configType) FilterResources(resources []resource.Resource, options resource.Options) []resource.Resource {
	return resources
}

func buildMaster(mc config.ManagerConfig) (resource.MasterAdapter, error) {
	switch mc.Adapter {
	case "script":
		return buildScriptMaster(mc)
	case "proc":
		return buildProcMaster(mc)
	default:
		return nil, fmt.Errorf("privnetd: manager %s/%s: unknown adapter %q (want \"script\" or \"proc\")", mc.Plugin, mc.ResourceType, mc.Adapter)
	}
}
