// Package wheels downloads pinned binary dependency packages for the
// target platform, falling back to source distributions when no matching
// wheel exists.
package wheels

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/streamforge/winstaller/internal/manifest"
	"github.com/streamforge/winstaller/pkg/xos"
)

// Downloader fetches wheels via pip download.
type Downloader struct {
	pythonPath string
	logger     hclog.Logger
}

// NewDownloader locates the python interpreter on PATH.
func NewDownloader(logger hclog.Logger) (*Downloader, error) {
	pythonPath, err := exec.LookPath("python")
	if err != nil {
		if pythonPath, err = exec.LookPath("python3"); err != nil {
			return nil, fmt.Errorf("python not found in PATH: %w", err)
		}
	}
	return &Downloader{pythonPath: pythonPath, logger: logger}, nil
}

// Download fetches the pinned dependencies into destDir. The first attempt
// accepts binary wheels only, with hash verification when the manifest pins
// hashes. If any dependency lacks a matching wheel the whole download is
// retried accepting source distributions, without transitive resolution and
// without hashes — pinned cross-platform resolution and dependency
// resolution cannot be combined in pip. Returns the number of files placed
// in destDir.
func (d *Downloader) Download(ctx context.Context, destDir string, spec manifest.BuildSpec) (int, error) {
	if len(spec.Dependencies) == 0 {
		return 0, nil
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return 0, fmt.Errorf("failed to create wheel directory: %w", err)
	}

	reqFile, err := d.writeRequirements(destDir, spec.Dependencies, true)
	if err != nil {
		return 0, err
	}

	binaryArgs := []string{
		"-m", "pip", "download",
		"--only-binary", ":all:",
		"--dest", destDir,
		"--platform", spec.Platform,
		"--python-version", spec.PythonVersion,
		"--implementation", spec.Implementation,
		"--requirement", reqFile,
	}
	if hasHashes(spec.Dependencies) {
		binaryArgs = append(binaryArgs, "--require-hashes")
	}

	if err := d.run(ctx, binaryArgs); err != nil {
		d.logger.Warn("binary wheel download failed, retrying with source distributions", "error", err)

		reqFile, err = d.writeRequirements(destDir, spec.Dependencies, false)
		if err != nil {
			return 0, err
		}
		sdistArgs := []string{
			"-m", "pip", "download",
			"--no-deps",
			"--dest", destDir,
			"--requirement", reqFile,
		}
		if err := d.run(ctx, sdistArgs); err != nil {
			return 0, fmt.Errorf("wheel download failed for both binary and source distributions: %w", err)
		}
	}

	return d.countArtifacts(destDir)
}

// writeRequirements renders the pinned dependency list as a requirements
// file next to the destination directory.
func (d *Downloader) writeRequirements(destDir string, deps []manifest.Dependency, withHashes bool) (string, error) {
	var b strings.Builder
	for _, dep := range deps {
		fmt.Fprintf(&b, "%s==%s", dep.Name, dep.Version)
		if withHashes && dep.Hash != "" {
			fmt.Fprintf(&b, " --hash=sha256:%s", dep.Hash)
		}
		b.WriteByte('\n')
	}

	path := filepath.Join(filepath.Dir(destDir), "requirements.txt")
	if err := xos.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return "", fmt.Errorf("failed to write requirements file: %w", err)
	}
	return path, nil
}

func (d *Downloader) countArtifacts(destDir string) (int, error) {
	entries, err := os.ReadDir(destDir)
	if err != nil {
		return 0, fmt.Errorf("failed to read wheel directory: %w", err)
	}
	count := 0
	for _, entry := range entries {
		if !entry.IsDir() {
			count++
		}
	}
	return count, nil
}

func (d *Downloader) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, d.pythonPath, args...)
	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr
	d.logger.Debug("exec", "cmd", d.pythonPath+" "+strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

func hasHashes(deps []manifest.Dependency) bool {
	for _, dep := range deps {
		if dep.Hash == "" {
			return false
		}
	}
	return true
}
