package wheels

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/winstaller/internal/manifest"
)

// stubPython installs a fake python that logs its arguments. When failFirst
// is set the first invocation exits non-zero, exercising the sdist retry.
func stubPython(t *testing.T, failFirst bool) string {
	t.Helper()
	binDir := t.TempDir()
	logFile := filepath.Join(binDir, "calls.log")
	marker := filepath.Join(binDir, "failed-once")
	script := `#!/bin/sh
echo "$@" >> "` + logFile + `"
`
	if failFirst {
		script += `if [ ! -f "` + marker + `" ]; then
  touch "` + marker + `"
  exit 1
fi
`
	}
	script += "exit 0\n"
	require.NoError(t, os.WriteFile(filepath.Join(binDir, "python"), []byte(script), 0755))
	t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return logFile
}

var testSpec = manifest.BuildSpec{
	Implementation: "cp",
	PythonVersion:  "3.13.2",
	Platform:       "win_amd64",
	Dependencies: []manifest.Dependency{
		{Name: "requests", Version: "2.32.3", Hash: "aa11"},
		{Name: "websocket-client", Version: "1.8.0", Hash: "bb22"},
	},
}

func TestDownloadBinaryOnlyFirstAttempt(t *testing.T) {
	logFile := stubPython(t, false)

	d, err := NewDownloader(hclog.NewNullLogger())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "wheels")
	_, err = d.Download(context.Background(), dest, testSpec)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	calls := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0], "--only-binary :all:")
	assert.Contains(t, calls[0], "--platform win_amd64")
	assert.Contains(t, calls[0], "--require-hashes")

	reqs, err := os.ReadFile(filepath.Join(filepath.Dir(dest), "requirements.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(reqs), "requests==2.32.3 --hash=sha256:aa11")
}

func TestDownloadFallsBackToSourceDistributions(t *testing.T) {
	logFile := stubPython(t, true)

	d, err := NewDownloader(hclog.NewNullLogger())
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "wheels")
	_, err = d.Download(context.Background(), dest, testSpec)
	require.NoError(t, err)

	data, err := os.ReadFile(logFile)
	require.NoError(t, err)
	calls := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, calls, 2)
	assert.Contains(t, calls[1], "--no-deps")
	assert.NotContains(t, calls[1], "--only-binary")
	assert.NotContains(t, calls[1], "--require-hashes")

	// The retry requirements file must not carry hashes.
	reqs, err := os.ReadFile(filepath.Join(filepath.Dir(dest), "requirements.txt"))
	require.NoError(t, err)
	assert.NotContains(t, string(reqs), "--hash")
}

func TestDownloadNoDependencies(t *testing.T) {
	stubPython(t, false)

	d, err := NewDownloader(hclog.NewNullLogger())
	require.NoError(t, err)

	count, err := d.Download(context.Background(), filepath.Join(t.TempDir(), "wheels"), manifest.BuildSpec{})
	require.NoError(t, err)
	assert.Zero(t, count)
}
