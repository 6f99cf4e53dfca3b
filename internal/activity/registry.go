package activity

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/posecoach/internal/repcycle"
)

//go:embed activities.yaml
var embeddedActivities []byte

// ErrInvalidDefinition is returned when a registry file contains an unusable activity.
var ErrInvalidDefinition = errors.New("invalid activity definition")

// Registry is the read-only set of activities, loaded once at startup.
type Registry struct {
	defs  []Definition
	byKey map[string]int
}

type registryFile struct {
	Activities []Definition `yaml:"activities"`
}

// Load returns the built-in activity registry.
func Load() (*Registry, error) {
	return Parse(embeddedActivities)
}

// LoadFile reads a registry from a YAML file on disk.
func LoadFile(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read activity file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML registry.
func Parse(data []byte) (*Registry, error) {
	var f registryFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse activities: %w", err)
	}

	r := &Registry{byKey: make(map[string]int, len(f.Activities))}
	for _, d := range f.Activities {
		if err := validate(d); err != nil {
			return nil, err
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, d.Key)
		}
		d.Cycle = withDefaults(d.Cycle)
		if d.Label == "" {
			d.Label = d.Key
		}
		r.byKey[d.Key] = len(r.defs)
		r.defs = append(r.defs, d)
	}
	return r, nil
}

func validate(d Definition) error {
	switch {
	case d.Key == "":
		return fmt.Errorf("%w: missing key", ErrInvalidDefinition)
	case d.Reps <= 0:
		return fmt.Errorf("%w: %s: reps must be positive", ErrInvalidDefinition, d.Key)
	case d.ScoreJoint == "":
		return fmt.Errorf("%w: %s: missing score_joint", ErrInvalidDefinition, d.Key)
	case len(d.PrimaryJoints) == 0:
		return fmt.Errorf("%w: %s: no primary_joints", ErrInvalidDefinition, d.Key)
	}
	return nil
}

// withDefaults fills unset cycle parameters from repcycle.DefaultParams.
func withDefaults(p repcycle.Params) repcycle.Params {
	def := repcycle.DefaultParams()
	if p.BaselineBand <= 0 {
		p.BaselineBand = def.BaselineBand
	}
	if p.UpThresh <= 0 {
		p.UpThresh = def.UpThresh
	}
	if p.MinDuration <= 0 {
		p.MinDuration = def.MinDuration
	}
	if p.MaxDuration <= 0 {
		p.MaxDuration = def.MaxDuration
	}
	if p.PeakHold <= 0 {
		p.PeakHold = def.PeakHold
	}
	return p
}

// Get returns the definition for key.
func (r *Registry) Get(key string) (Definition, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i], true
}

// All returns the definitions in file order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	copy(out, r.defs)
	return out
}

// Keys returns the activity keys in file order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.defs))
	for i, d := range r.defs {
		keys[i] = d.Key
	}
	return keys
}
