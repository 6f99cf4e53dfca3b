// Package config loads the posecoach YAML configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/posecoach/internal/detector"
	"github.com/ayusman/posecoach/internal/rules"
)

// Config is the top-level configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server" json:"server"`
	Store      StoreConfig      `yaml:"store" json:"store"`
	Camera     CameraConfig     `yaml:"camera" json:"camera"`
	Detector   DetectorConfig   `yaml:"detector" json:"detector"`
	Activities ActivitiesConfig `yaml:"activities" json:"activities"`
	References ReferencesConfig `yaml:"references" json:"references"`
	Rules      rules.Thresholds `yaml:"rules" json:"rules"`
	Plugins    PluginsConfig    `yaml:"plugins" json:"plugins"`
	Log        LogConfig        `yaml:"log" json:"log"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
	// StaticDir is served at / when set.
	StaticDir string `yaml:"static_dir" json:"static_dir"`
}

// StoreConfig configures the SQLite database.
type StoreConfig struct {
	Path string `yaml:"path" json:"path"`
}

// CameraConfig configures live capture.
type CameraConfig struct {
	Device int `yaml:"device" json:"device"`
	FPS    int `yaml:"fps" json:"fps"`
}

// DetectorConfig configures the pose service.
type DetectorConfig struct {
	Script        string  `yaml:"script" json:"script"`
	Python        string  `yaml:"python" json:"python"`
	Model         string  `yaml:"model" json:"model"`
	MinConfidence float64 `yaml:"min_confidence" json:"min_confidence"`
}

// ActivitiesConfig points at an activity registry overriding the built-in one.
type ActivitiesConfig struct {
	File string `yaml:"file" json:"file"`
}

// ReferencesConfig lists directories searched for reference templates, in order.
type ReferencesConfig struct {
	Dirs []string `yaml:"dirs" json:"dirs"`
}

// PluginsConfig configures event plugins. An empty Dir disables them.
type PluginsConfig struct {
	Dir     string        `yaml:"dir" json:"dir"`
	Timeout time.Duration `yaml:"timeout" json:"timeout"`
}

// LogConfig configures the slog handler.
type LogConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"` // text or json
}

// DataDir is the per-user directory for the database and downloaded assets.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".posecoach"
	}
	return filepath.Join(home, ".posecoach")
}

// Default returns the configuration used when no file is given.
func Default() Config {
	dc := detector.DefaultConfig()
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Store:  StoreConfig{Path: filepath.Join(DataDir(), "posecoach.db")},
		Camera: CameraConfig{Device: 0, FPS: 15},
		Detector: DetectorConfig{
			Model:         dc.Model,
			MinConfidence: dc.MinConfidence,
		},
		References: ReferencesConfig{Dirs: []string{
			filepath.Join("assets", "templates"),
			filepath.Join(DataDir(), "templates"),
		}},
		Rules: rules.DefaultThresholds(),
		Plugins: PluginsConfig{
			Dir:     filepath.Join(DataDir(), "plugins"),
			Timeout: 5 * time.Second,
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	var errs []error
	if c.Camera.FPS <= 0 {
		errs = append(errs, fmt.Errorf("camera.fps must be positive, got %d", c.Camera.FPS))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("detector.min_confidence must be in [0,1], got %g", c.Detector.MinConfidence))
	}
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if c.Plugins.Timeout < 0 {
		errs = append(errs, fmt.Errorf("plugins.timeout must not be negative, got %s", c.Plugins.Timeout))
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// DetectorConfig converts the detector section for the pose service.
func (c *Config) DetectorConfig() detector.Config {
	return detector.Config{
		Script:        c.Detector.Script,
		Python:        c.Detector.Python,
		Model:         c.Detector.Model,
		MinConfidence: c.Detector.MinConfidence,
	}
}

// ParseLevel maps a level name onto slog.
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return l, nil
}

// NewLogger builds the process logger described by the log section.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	level, err := ParseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
