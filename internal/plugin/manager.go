package plugin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager discovers plugins under a root directory.
type Manager struct {
	dir     string
	logger  *slog.Logger
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a Manager for dir. A nil logger uses slog.Default.
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:     dir,
		logger:  logger.With("component", "plugin"),
		plugins: make(map[string]*Plugin),
	}
}

// Discover rescans the root for subdirectories holding a plugin.json.
// A missing root is not an error. Unreadable manifests are logged and skipped.
func (m *Manager) Discover() error {
	found := make(map[string]*Plugin)
	defer func() {
		m.mu.Lock()
		m.plugins = found
		m.mu.Unlock()
	}()

	info, err := os.Stat(m.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return nil
	}

	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(m.dir, entry.Name())
		data, err := os.ReadFile(filepath.Join(path, "plugin.json"))
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			m.logger.Warn("read manifest", "dir", path, "error", err)
			continue
		}
		var man Manifest
		if err := json.Unmarshal(data, &man); err != nil {
			m.logger.Warn("invalid manifest", "dir", path, "error", err)
			continue
		}
		if man.Name == "" || man.Executable == "" {
			m.logger.Warn("manifest missing name or executable", "dir", path)
			continue
		}
		found[man.Name] = &Plugin{
			Manifest:   man,
			Path:       path,
			Executable: filepath.Join(path, man.Executable),
		}
		m.logger.Info("plugin discovered", "name", man.Name, "events", man.Events)
	}
	return nil
}

// Get returns a plugin by name.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plugins[name]
	if !ok {
		return nil, ErrPluginNotFound
	}
	return p, nil
}

// List returns all discovered plugins sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.Name < out[j].Manifest.Name })
	return out
}

// For returns the plugins subscribed to event, sorted by name.
func (m *Manager) For(event string) []*Plugin {
	var out []*Plugin
	for _, p := range m.List() {
		if p.Manifest.Wants(event) {
			out = append(out, p)
		}
	}
	return out
}

// Dir returns the plugin root.
func (m *Manager) Dir() string {
	return m.dir
}
