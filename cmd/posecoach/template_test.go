package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/posecoach/internal/activity"
	"github.com/ayusman/posecoach/internal/reference"
	"github.com/ayusman/posecoach/testdata"
)

func writeSquatRecording(t *testing.T) string {
	t.Helper()
	data, err := testdata.RecordingBytes("squat_5reps.jsonl")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "squat.jsonl")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestTemplateCmd(t *testing.T) {
	rec := writeSquatRecording(t)
	outDir := filepath.Join(t.TempDir(), "templates")

	out, err := run(t, "template", "--activity", "squat", rec, outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "162 frames")

	tpl, err := reference.NewLoader(outDir).Load("squat_rule")
	require.NoError(t, err)
	assert.Len(t, tpl.Phase, 162)
	assert.InDelta(t, 0, tpl.Phase[0], 1e-12)
	assert.InDelta(t, 1, tpl.Phase[len(tpl.Phase)-1], 1e-12)
	assert.Len(t, reference.Scalar(tpl, activity.Squat), 162)
	assert.Len(t, tpl.Series["knee_ANY_flex"], 162)
}

func TestTemplateCmd_Name(t *testing.T) {
	rec := writeSquatRecording(t)
	outDir := t.TempDir()

	_, err := run(t, "template", "--name", "coach_demo", rec, outDir)
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(outDir, "coach_demo.json"))
	assert.FileExists(t, filepath.Join(outDir, "coach_demo.csv"))
}

func TestTemplateCmd_Errors(t *testing.T) {
	rec := writeSquatRecording(t)
	outDir := t.TempDir()

	_, err := run(t, "template", rec, outDir)
	assert.Error(t, err, "activity or name is required")

	_, err = run(t, "template", "--activity", "yoga", rec, outDir)
	assert.Error(t, err)

	_, err = run(t, "template", "--activity", "squat", filepath.Join(outDir, "missing.jsonl"), outDir)
	assert.Error(t, err)

	_, err = run(t, "template", "--activity", "squat", rec)
	assert.Error(t, err, "output directory is required")
}
