package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/recording"
	"github.com/ayusman/posecoach/internal/scoring"
)

type replayReport struct {
	Frames  int                    `json:"frames"`
	Reps    []coach.RepResult      `json:"reps"`
	Sets    []scoring.SetSummary   `json:"sets"`
	Summary scoring.SessionSummary `json:"summary"`
}

func newReplayCmd(configPath *string) *cobra.Command {
	var activityKey string
	cmd := &cobra.Command{
		Use:   "replay <recording.jsonl>",
		Short: "Run a recorded pose stream through the coach and print the results as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			poses, err := recording.ReadFile(args[0])
			if err != nil {
				return err
			}
			sess, err := rt.newSession()
			if err != nil {
				return err
			}
			if err := sess.StartTrial(activityKey); err != nil {
				return fmt.Errorf("start trial: %w", err)
			}

			report := replayReport{Frames: len(poses), Reps: []coach.RepResult{}}
			for _, p := range poses {
				if res := sess.Ingest(p); res.Rep != nil {
					report.Reps = append(report.Reps, *res.Rep)
				}
			}
			sess.StopTrial()
			report.Sets = sess.Sets()
			report.Summary = sess.Summary()

			rt.logger.Info("replay finished", "component", "cli", "frames", report.Frames, "reps", len(report.Reps), "sets", len(report.Sets))
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(report)
		},
	}
	cmd.Flags().StringVarP(&activityKey, "activity", "a", "squat", "activity key to coach")
	return cmd
}
