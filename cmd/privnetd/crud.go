package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/privnet/internal/resource"
	"github.com/nupi-ai/privnet/internal/tasklist"
)

// runTaskList runs tl to completion, printing each progress message as it
// arrives, and returns its terminal error.
func runTaskList(cmd *cobra.Command, tl *tasklist.TaskList) error {
	for ev := range tl.Progress() {
		switch ev.Type {
		case tasklist.EventProgress:
			fmt.Fprintln(cmd.OutOrStdout(), ev.Message)
		case tasklist.EventError:
			fmt.Fprintln(cmd.ErrOrStderr(), ev.Message)
		case tasklist.EventAborted:
			fmt.Fprintln(cmd.ErrOrStderr(), "aborted")
		}
	}
	return tl.Wait()
}

func newCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <plugin> <resourceType> <name>",
		Short: "Create a resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, args[0], args[1], func(ctx context.Context, mgr manager) error {
				tl := mgr.Create(ctx, args[2], resource.Options{})
				return runTaskList(cmd, tl)
			})
		},
	}
	return cmd
}

func newDeleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delete <plugin> <resourceType> <name>",
		Short: "Delete a resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, args[0], args[1], func(ctx context.Context, mgr manager) error {
				tl := mgr.Delete(ctx, args[2], resource.Options{})
				return runTaskList(cmd, tl)
			})
		},
	}
	return cmd
}

func newStartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start <plugin> <resourceType> <name>",
		Short: "Start a resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, args[0], args[1], func(ctx context.Context, mgr manager) error {
				tl := mgr.Start(ctx, args[2], resource.Options{})
				return runTaskList(cmd, tl)
			})
		},
	}
	return cmd
}

func newStopCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop <plugin> <resourceType> <name>",
		Short: "Stop a resource",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withManager(cmd, args[0], args[1], func(ctx context.Context, mgr manager) error {
				tl := mgr.Stop(ctx, args[2], resource.Options{})
				return runTaskList(cmd, tl)
			})
		},
	}
	return cmd
}
