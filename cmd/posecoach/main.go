// Command posecoach is a real-time exercise coach driven by human pose estimation.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string
	root := &cobra.Command{
		Use:           "posecoach",
		Short:         "Count and grade exercise repetitions from camera poses",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")

	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newReplayCmd(&configPath))
	root.AddCommand(newRecordCmd(&configPath))
	root.AddCommand(newActivitiesCmd(&configPath))
	root.AddCommand(newTemplateCmd(&configPath))
	return root
}
