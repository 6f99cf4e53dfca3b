package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newActivitiesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "activities",
		Short: "List the configured activities",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tLABEL\tREPS\tSCORE JOINT\tREFERENCE")
			for _, d := range rt.registry.All() {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", d.Key, d.Label, d.Reps, d.ScoreJoint, d.Reference)
			}
			return w.Flush()
		},
	}
}
