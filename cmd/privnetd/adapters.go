package main

import (
	"fmt"

	"github.com/nupi-ai/privnet/internal/config"
	"github.com/nupi-ai/privnet/internal/procadapter"
	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/scriptadapter"
)

func buildScriptMaster(mc config.ManagerConfig) (resource.MasterAdapter, error) {
	if mc.ScriptManifest == "" {
		return nil, fmt.Errorf("privnetd: manager %s/%s: adapter \"script\" requires scriptManifest", mc.Plugin, mc.ResourceType)
	}
	return scriptadapter.NewMaster(mc.ScriptManifest)
}

func buildProcMaster(mc config.ManagerConfig) (resource.MasterAdapter, error) {
	if mc.ProcBinary == "" {
		return nil, fmt.Errorf("privnetd: manager %s/%s: adapter \"proc\" requires procBinary", mc.Plugin, mc.ResourceType)
	}
	return procadapter.NewMaster(procadapter.Config{
		Binary:      mc.ProcBinary,
		Interactive: mc.ProcInteractive,
	}), nil
}
