package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/privnet/internal/resourcesmanager"
)

type manager = *resourcesmanager.Manager

// withManager loads instanceName's core, resolves the (plugin, resourceType)
// manager, and runs fn against it, closing the core afterward regardless of
// fn's outcome.
func withManager(cmd *cobra.Command, plugin, resourceType string, fn func(ctx context.Context, mgr manager) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	c, err := buildCore(ctx, instanceName)
	if err != nil {
		return err
	}
	defer c.Close()

	mgr, err := c.manager(plugin, resourceType)
	if err != nil {
		return err
	}
	return fn(ctx, mgr)
}
