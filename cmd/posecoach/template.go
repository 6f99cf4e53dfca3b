package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/recording"
	"github.com/ayusman/posecoach/internal/reference"
)

func newTemplateCmd(configPath *string) *cobra.Command {
	var activityKey, name string
	cmd := &cobra.Command{
		Use:   "template <recording.jsonl> <outdir>",
		Short: "Extract a phase-normalized reference template from a recorded demonstration",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			if name == "" {
				if activityKey == "" {
					return errors.New("set --activity or --name")
				}
				def, ok := rt.registry.Get(activityKey)
				if !ok {
					return fmt.Errorf("%w: %q", coach.ErrUnknownActivity, activityKey)
				}
				name = def.Reference
				if name == "" {
					name = def.Key
				}
			}

			poses, err := recording.ReadFile(args[0])
			if err != nil {
				return err
			}
			tpl, err := reference.Build(poses)
			if err != nil {
				return fmt.Errorf("build template: %w", err)
			}
			if err := reference.Write(args[1], name, tpl); err != nil {
				return err
			}

			rt.logger.Info("template written", "component", "cli", "name", name, "frames", len(tpl.Phase), "curves", len(tpl.Series))
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s.{json,csv}: %d frames, %d curves\n",
				filepath.Join(args[1], name), len(tpl.Phase), len(tpl.Series))
			return nil
		},
	}
	cmd.Flags().StringVarP(&activityKey, "activity", "a", "", "activity whose reference name the template takes")
	cmd.Flags().StringVarP(&name, "name", "n", "", "template base name, overriding the activity's reference")
	return cmd
}
