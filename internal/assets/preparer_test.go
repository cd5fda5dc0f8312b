package assets

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/streamforge/winstaller/internal/manifest"
)

func writeZip(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range files {
		f, err := w.Create(name)
		require.NoError(t, err)
		_, err = f.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func writeTarGz(t *testing.T, path string, files map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for name, content := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))
}

func newPreparer(t *testing.T, strict bool) *Preparer {
	t.Helper()
	root := t.TempDir()
	p := &Preparer{
		CacheDir:   filepath.Join(root, "cache"),
		StagingDir: filepath.Join(root, "staging"),
		ExtractDir: filepath.Join(root, "extract"),
		Strict:     strict,
		Logger:     hclog.NewNullLogger(),
	}
	require.NoError(t, os.MkdirAll(p.CacheDir, 0755))
	require.NoError(t, os.MkdirAll(p.StagingDir, 0755))
	return p
}

func TestPrepareZipAssetWithSourceDir(t *testing.T) {
	p := newPreparer(t, true)
	writeZip(t, filepath.Join(p.CacheDir, "ffmpeg.zip"), map[string]string{
		"ffmpeg-7.1/bin/ffmpeg.exe":  "MZ binary",
		"ffmpeg-7.1/bin/LICENSE.txt": "license text",
		"ffmpeg-7.1/README.md":       "readme",
	})

	err := p.Prepare([]manifest.NamedAsset{{
		Name: "ffmpeg",
		Spec: manifest.AssetSpec{
			Filename:  "ffmpeg.zip",
			Type:      "zip",
			SourceDir: "ffmpeg-7.1/bin",
			TargetDir: "ffmpeg",
			Files: []manifest.FileMapping{
				{From: "ffmpeg.exe", To: "ffmpeg.exe"},
				{From: "LICENSE.txt", To: "licenses/ffmpeg.txt"},
			},
		},
	}})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(p.StagingDir, "ffmpeg", "ffmpeg.exe"))
	require.NoError(t, err)
	assert.Equal(t, "MZ binary", string(data))
	assert.FileExists(t, filepath.Join(p.StagingDir, "ffmpeg", "licenses", "ffmpeg.txt"))
}

func TestPreparePlainAssetFromCache(t *testing.T) {
	p := newPreparer(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(p.CacheDir, "ca-bundle.pem"), []byte("certs"), 0644))

	err := p.Prepare([]manifest.NamedAsset{{
		Name: "cacert",
		Spec: manifest.AssetSpec{
			Filename: "ca-bundle.pem",
			Files:    []manifest.FileMapping{{From: "ca-bundle.pem", To: "cacert.pem"}},
		},
	}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(p.StagingDir, "cacert.pem"))
}

func TestPrepareTarGzAsset(t *testing.T) {
	p := newPreparer(t, true)
	writeTarGz(t, filepath.Join(p.CacheDir, "tool.tar.gz"), map[string]string{
		"tool/tool.exe": "tool bytes",
	})

	err := p.Prepare([]manifest.NamedAsset{{
		Name: "tool",
		Spec: manifest.AssetSpec{
			Filename:  "tool.tar.gz",
			Type:      "tar.gz",
			SourceDir: "tool",
			Files:     []manifest.FileMapping{{From: "tool.exe", To: "tool.exe"}},
		},
	}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(p.StagingDir, "tool.exe"))
}

func TestPrepareRejectsEscapingTarget(t *testing.T) {
	p := newPreparer(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(p.CacheDir, "f"), []byte("x"), 0644))

	err := p.Prepare([]manifest.NamedAsset{{
		Name: "evil",
		Spec: manifest.AssetSpec{
			Filename: "f",
			Files:    []manifest.FileMapping{{From: "f", To: "../../outside"}},
		},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes staging tree")
}

func TestPrepareSkipsEmptyMappings(t *testing.T) {
	p := newPreparer(t, true)
	require.NoError(t, os.WriteFile(filepath.Join(p.CacheDir, "f"), []byte("x"), 0644))

	err := p.Prepare([]manifest.NamedAsset{{
		Name: "partial",
		Spec: manifest.AssetSpec{
			Filename: "f",
			Files: []manifest.FileMapping{
				{From: "", To: "ignored"},
				{From: "f", To: ""},
				{From: "f", To: "kept"},
			},
		},
	}})
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(p.StagingDir, "kept"))
	assert.NoFileExists(t, filepath.Join(p.StagingDir, "ignored"))
}

func TestPrepareMalformedAssetLenientVsStrict(t *testing.T) {
	broken := []manifest.NamedAsset{{Name: "broken", Spec: manifest.AssetSpec{}}}

	lenient := newPreparer(t, false)
	assert.NoError(t, lenient.Prepare(broken))

	strict := newPreparer(t, true)
	err := strict.Prepare(broken)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing filename")
}

func TestExtractRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	writeZip(t, archive, map[string]string{"../escape.txt": "nope"})

	err := Extract(archive, "zip", filepath.Join(dir, "out"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "escapes extraction directory")
}
