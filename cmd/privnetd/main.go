// Command privnetd is the privnet operator CLI: it loads an instance's
// configured ResourcesManagers, rehydrates them from disk, and exposes
// create/delete/start/stop/list/describe as one-shot subcommands, plus a
// serve subcommand that keeps the process resident for out-of-process
// callers that drive it via a future wire transport (out of scope here —
// see spec.md §1 and SPEC_FULL.md's Non-goals).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nupi-ai/privnet/internal/config"
)

var (
	rootCmd      *cobra.Command
	instanceName string
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "privnetd",
		Short: "Operator CLI for the privnet resource orchestration daemon",
	}
	rootCmd.PersistentFlags().StringVar(&instanceName, "instance", config.DefaultInstance, "instance name to operate on")

	rootCmd.AddCommand(
		newCreateCmd(),
		newDeleteCmd(),
		newStartCmd(),
		newStopCmd(),
		newListCmd(),
		newDescribeCmd(),
		newServeCmd(),
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
