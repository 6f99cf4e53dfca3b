package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/coach"
	"github.com/ayusman/posecoach/internal/config"
	"github.com/ayusman/posecoach/internal/reference"
)

// runtime holds what every subcommand derives from the configuration.
type runtime struct {
	cfg      config.Config
	logger   *slog.Logger
	registry *activity.Registry
	matcher  *reference.Matcher
}

func loadRuntime(configPath string) (*runtime, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger := cfg.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	var reg *activity.Registry
	if cfg.Activities.File != "" {
		reg, err = activity.LoadFile(cfg.Activities.File)
	} else {
		reg, err = activity.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("load activities: %w", err)
	}

	return &runtime{
		cfg:      cfg,
		logger:   logger,
		registry: reg,
		matcher:  reference.NewMatcher(reference.NewLoader(cfg.References.Dirs...), reg),
	}, nil
}

func (rt *runtime) coachConfig() coach.Config {
	return coach.Config{
		Registry:   rt.registry,
		Thresholds: rt.cfg.Rules,
		Matcher:    rt.matcher,
		Logger:     rt.logger,
	}
}

func (rt *runtime) newSession() (*coach.Session, error) {
	return coach.NewSession(rt.coachConfig())
}
