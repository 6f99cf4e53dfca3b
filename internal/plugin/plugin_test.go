package plugin

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

// writePlugin creates dir/name with a manifest and an executable shell script.
func writePlugin(t *testing.T, dir, name, manifest, script string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell plugins are not supported on windows")
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(path, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(path, "plugin.json"), []byte(manifest), 0o644))
	exe := filepath.Join(path, "run.sh")
	require.NoError(t, os.WriteFile(exe, []byte("#!/bin/sh\n"+script), 0o755))
	return &Plugin{Path: path, Executable: exe}
}
