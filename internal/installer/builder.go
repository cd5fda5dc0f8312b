package installer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/streamforge/winstaller/pkg/xos"
)

// RequiredFiles are the staged files the installer compiler depends on.
// Their paths are relative to the staging build directory.
var RequiredFiles = []string{"icon.ico", "LICENSE.txt", "config"}

// Builder invokes the external installer compiler.
type Builder struct {
	pynsistPath string
	logger      hclog.Logger
}

// NewBuilder locates the installer compiler on PATH.
func NewBuilder(logger hclog.Logger) (*Builder, error) {
	pynsistPath, err := exec.LookPath("pynsist")
	if err != nil {
		return nil, fmt.Errorf("pynsist not found in PATH: %w", err)
	}
	return &Builder{pynsistPath: pynsistPath, logger: logger}, nil
}

// CheckRequiredFiles verifies the fixed set of staged inputs exists,
// reporting every missing file at once.
func CheckRequiredFiles(stagingDir string) error {
	var missing []string
	for _, name := range RequiredFiles {
		if _, err := os.Stat(filepath.Join(stagingDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("required staged files missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Build compiles the installer from the rendered configuration. The wheel
// directory is exported to the compiler's dependency resolution and its
// download cache is redirected into the run's cache directory.
func (b *Builder) Build(ctx context.Context, cfgPath, wheelDir, cacheDir string) error {
	cmd := exec.CommandContext(ctx, b.pynsistPath, cfgPath)
	cmd.Dir = filepath.Dir(cfgPath)
	cmd.Env = append(os.Environ(),
		"PIP_FIND_LINKS="+wheelDir,
		"PYNSIST_CACHE_DIR="+cacheDir,
	)

	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr
	b.logger.Info("building installer", "config", cfgPath)
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("installer compiler failed: %w: %s", err, msg)
		}
		return fmt.Errorf("installer compiler failed: %w", err)
	}
	return nil
}

// Collect copies the produced installer into the distribution directory.
// The dist directory accumulates one artifact per run; no run removes
// another run's output.
func Collect(builtPath, distDir string) (string, error) {
	if err := os.MkdirAll(distDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create distribution directory: %w", err)
	}
	target := filepath.Join(distDir, filepath.Base(builtPath))
	if err := xos.CopyFile(builtPath, target, 0644); err != nil {
		return "", fmt.Errorf("failed to collect installer: %w", err)
	}
	return target, nil
}
