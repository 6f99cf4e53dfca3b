package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	goruntime "runtime"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ayusman/posecoach/internal/app"
	"github.com/ayusman/posecoach/internal/plugin"
	"github.com/ayusman/posecoach/internal/server"
	"github.com/ayusman/posecoach/internal/store"
	"github.com/ayusman/posecoach/internal/tray"
)

func newServeCmd(configPath *string) *cobra.Command {
	var (
		addr     string
		withTray bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the coaching service with its HTTP API and live event stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := loadRuntime(*configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				rt.cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), rt, withTray)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	cmd.Flags().BoolVar(&withTray, "tray", false, "show a system tray menu")
	return cmd
}

func serve(ctx context.Context, rt *runtime, withTray bool) error {
	cfg, log := rt.cfg, rt.logger.With("component", "cli")

	if err := os.MkdirAll(filepath.Dir(cfg.Store.Path), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	coachApp := app.New(app.Config{
		Store:    st,
		Coach:    rt.coachConfig(),
		CameraID: cfg.Camera.Device,
		FPS:      cfg.Camera.FPS,
		Detector: cfg.DetectorConfig(),
		Logger:   rt.logger,
	})

	hub := server.NewHub(rt.logger)
	defer coachApp.Subscribe(func(ev app.Event) { hub.Publish(ev) })()

	if cfg.Plugins.Dir != "" {
		mgr := plugin.NewManager(cfg.Plugins.Dir, rt.logger)
		if err := mgr.Discover(); err != nil {
			log.Warn("plugin discovery failed", "dir", cfg.Plugins.Dir, "error", err)
		}
		disp := plugin.NewDispatcher(mgr, plugin.NewExecutor(cfg.Plugins.Timeout), rt.logger)
		defer disp.Close()
		defer coachApp.Subscribe(func(ev app.Event) {
			if ev.Type != app.EventFrame {
				disp.Notify(string(ev.Type), ev.SessionID, ev)
			}
		})()
	}

	srv := server.New(server.Config{
		StaticDir:  cfg.Server.StaticDir,
		Store:      st,
		Registry:   rt.registry,
		Controller: coachApp,
		NewSession: rt.newSession,
		Events:     hub,
		Logger:     rt.logger,
	})

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer func() {
		if coachApp.SessionID() == "" {
			return
		}
		if _, err := coachApp.Stop(); err != nil && !errors.Is(err, app.ErrNotRunning) {
			log.Warn("stop session", "error", err)
		}
	}()

	log.Info("serving", "addr", cfg.Server.Addr, "store", cfg.Store.Path, "activities", len(rt.registry.Keys()))
	if !withTray {
		return srv.ListenAndServe(ctx, cfg.Server.Addr)
	}

	// The tray owns the main goroutine; the server runs beside it.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe(ctx, cfg.Server.Addr) }()

	t := tray.New()
	t.OnToggle(coachApp.SetEnabled)
	t.OnSettings(func() {
		if err := openBrowser(dashboardURL(cfg.Server.Addr)); err != nil {
			log.Warn("open browser", "error", err)
		}
	})
	t.OnQuit(cancel)
	defer coachApp.Subscribe(func(ev app.Event) {
		switch {
		case ev.Type == app.EventRep && ev.Rep != nil:
			t.SetLastRep(ev.Rep.Index, ev.Rep.Score, ev.Rep.Assessment.Message)
		case ev.Type == app.EventSet && ev.Set != nil:
			t.SetLastSet(ev.Set.Activity, ev.Set.RepsCounted, ev.Set.RepsTarget, ev.Set.FinalPercent)
		}
	})()
	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()

	cancel()
	return <-errCh
}

func dashboardURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://localhost:8080/"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/"
}

func openBrowser(url string) error {
	switch goruntime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}
