package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/privnet/internal/resource"
)

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list <plugin> <resourceType>",
		Short: "List every resource a manager currently owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, args[0], args[1], func(ctx context.Context, mgr manager) error {
				sub := mgr.GetResources(ctx, resource.Options{})
				ch, unsub := sub.Subscribe()
				defer unsub()

				select {
				case resources := <-ch:
					for _, r := range resources {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", r.Name, r.State)
					}
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			})
		},
	}
	return cmd
}
