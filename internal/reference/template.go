// Package reference loads recorded reference motions and matches user repetitions against them.
package reference

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
)

// Template is a reference motion: a normalized phase vector and per-joint angle curves.
type Template struct {
	Phase  []float64            `json:"phase"`
	Series map[string][]float64 `json:"series"`
}

// Empty reports whether the template carries no curves.
func (t Template) Empty() bool {
	return len(t.Series) == 0
}

// Loader resolves template files across an ordered list of directories.
// Files are read on every call so edits on disk are picked up immediately.
type Loader struct {
	Dirs []string
}

// NewLoader creates a Loader searching dirs in order.
func NewLoader(dirs ...string) *Loader {
	return &Loader{Dirs: dirs}
}

// find returns the first existing <dir>/<file>.
func (l *Loader) find(file string) (string, bool) {
	for _, dir := range l.Dirs {
		p := filepath.Join(dir, file)
		if st, err := os.Stat(p); err == nil && !st.IsDir() {
			return p, true
		}
	}
	return "", false
}

// Load reads <name>.json for the phase and <name>.csv for the curves.
// Missing files leave the matching part empty. Errors from unreadable files are returned
// together with whatever could be loaded.
func (l *Loader) Load(name string) (Template, error) {
	tpl := Template{Series: map[string][]float64{}}
	var errs []error

	if p, ok := l.find(name + ".json"); ok {
		phase, err := readPhase(p)
		if err != nil {
			errs = append(errs, err)
		}
		tpl.Phase = phase
	}
	if p, ok := l.find(name + ".csv"); ok {
		series, err := readCurves(p)
		if err != nil {
			errs = append(errs, err)
		} else {
			tpl.Series = series
		}
	}
	return tpl, errors.Join(errs...)
}

func readPhase(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read phase: %w", err)
	}
	var doc struct {
		Phase []float64 `json:"phase"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse phase %s: %w", path, err)
	}
	return doc.Phase, nil
}

// readCurves reads rows with at least "joint" and "value" columns.
// Rows with a missing joint or a non-numeric value are skipped.
func readCurves(path string) (map[string][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open curves: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header %s: %w", path, err)
	}
	jointCol, valueCol := -1, -1
	for i, h := range header {
		switch h {
		case "joint":
			jointCol = i
		case "value":
			valueCol = i
		}
	}
	if jointCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("%s: missing joint or value column", path)
	}

	out := make(map[string][]float64)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read curves %s: %w", path, err)
		}
		if jointCol >= len(rec) || valueCol >= len(rec) || rec[jointCol] == "" {
			continue
		}
		v, err := strconv.ParseFloat(rec[valueCol], 64)
		if err != nil {
			continue
		}
		out[rec[jointCol]] = append(out[rec[jointCol]], v)
	}
	return out, nil
}
