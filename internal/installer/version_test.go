package installer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadStagedVersionFromDirName(t *testing.T) {
	pkgs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(pkgs, "streamforge-7.1.3.dist-info"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(pkgs, "requests-2.32.3.dist-info"), 0755))

	version, err := ReadStagedVersion(pkgs, "streamforge")
	require.NoError(t, err)
	assert.Equal(t, "7.1.3", version)
}

func TestReadStagedVersionNormalizesName(t *testing.T) {
	pkgs := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(pkgs, "websocket_client-1.8.0.dist-info"), 0755))

	version, err := ReadStagedVersion(pkgs, "websocket-client")
	require.NoError(t, err)
	assert.Equal(t, "1.8.0", version)
}

func TestReadStagedVersionMissing(t *testing.T) {
	_, err := ReadStagedVersion(t.TempDir(), "streamforge")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no dist-info")
}

func TestDisambiguateVersion(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		custom   bool
		isTag    bool
		expected string
	}{
		{"custom untagged ref gets suffix", "7.1.3", true, false, "7.1.3+0.gabc1234"},
		{"default ref unchanged", "7.1.3", false, false, "7.1.3"},
		{"tag ref unchanged", "7.1.3", true, true, "7.1.3"},
		{"existing suffix unchanged", "7.1.3+27.gdeadbee", true, false, "7.1.3+27.gdeadbee"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DisambiguateVersion(tt.version, "abc1234", tt.custom, tt.isTag))
		})
	}
}

func TestNumericFileVersion(t *testing.T) {
	tests := []struct {
		version  string
		expected string
	}{
		{"7.1.3", "7.1.3.0"},
		{"7.1.3+27.gdeadbee", "7.1.3.27"},
		{"7.1.3+0.gabc1234", "7.1.3.0"},
		{"7.1.3+gdeadbee", "7.1.3.0"},
		{"1.0", "1.0.0"},
	}
	for _, tt := range tests {
		t.Run(tt.version, func(t *testing.T) {
			assert.Equal(t, tt.expected, NumericFileVersion(tt.version))
		})
	}
}

func TestInstallerFilename(t *testing.T) {
	assert.Equal(t, "streamforge-7.1.3-1-py313-x86_64.exe",
		InstallerFilename("streamforge", "7.1.3", "-1", "py313-x86_64"))
}
