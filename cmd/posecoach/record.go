package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/posecoach/internal/capture"
	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/recording"
)

// maxFailures is the number of consecutive capture errors that aborts a recording.
const maxFailures = 30

func newRecordCmd(configPath *string) *cobra.Command {
	var duration time.Duration
	cmd := &cobra.Command{
		Use:   "record <out.jsonl>",
		Short: "Capture poses from the camera into a JSONL recording",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			det, err := detector.NewServiceDetector(rt.cfg.DetectorConfig())
			if err != nil {
				return fmt.Errorf("pose service: %w", err)
			}
			src, err := capture.NewLiveSource(capture.NewCamera(rt.cfg.Camera.Device), det, rt.cfg.Camera.FPS)
			if err != nil {
				det.Close()
				return err
			}
			defer src.Close()

			f, err := os.Create(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			w := recording.NewWriter(f)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			n, failures := 0, 0
			for {
				p, err := src.Next(ctx)
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break
				}
				if err != nil {
					if failures++; failures >= maxFailures {
						return fmt.Errorf("capture failing: %w", err)
					}
					rt.logger.Warn("frame skipped", "component", "cli", "error", err)
					continue
				}
				failures = 0
				if err := w.Write(p); err != nil {
					return err
				}
				n++
			}
			rt.logger.Info("recording saved", "component", "cli", "path", args[0], "frames", n)
			return nil
		},
	}
	cmd.Flags().DurationVarP(&duration, "duration", "d", 0, "stop after this long (default: until interrupted)")
	return cmd
}
