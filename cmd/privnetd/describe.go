package main

import (
	"context"

	"github.com/spf13/cobra"
)

func newDescribeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "describe <plugin> <resourceType>",
		Short: "Render a human-oriented table of every resource a manager owns",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, args[0], args[1], func(ctx context.Context, mgr manager) error {
				table := mgr.GetDebug()
				return table.Render(cmd.OutOrStdout())
			})
		},
	}
	return cmd
}
