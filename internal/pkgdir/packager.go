// Package pkgdir installs the application and its pinned dependencies into
// an isolated staging directory and scrubs installer metadata that would
// leak build-machine paths.
package pkgdir

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

// Packager runs pip installs targeting a specific platform and runtime.
type Packager struct {
	pythonPath string
	logger     hclog.Logger
}

// NewPackager locates the python interpreter on PATH.
func NewPackager(logger hclog.Logger) (*Packager, error) {
	pythonPath, err := exec.LookPath("python")
	if err != nil {
		if pythonPath, err = exec.LookPath("python3"); err != nil {
			return nil, fmt.Errorf("python not found in PATH: %w", err)
		}
	}
	return &Packager{pythonPath: pythonPath, logger: logger}, nil
}

// Install installs the checkout at srcDir plus every pinned dependency into
// pkgsDir. Transitive dependencies are never resolved, bytecode is never
// compiled, and no local package cache is consulted, so the result depends
// only on the inputs.
func (p *Packager) Install(ctx context.Context, srcDir, pkgsDir string, spec manifest.BuildSpec) error {
	requirements := []string{srcDir}
	for _, dep := range spec.Dependencies {
		requirements = append(requirements, fmt.Sprintf("%s==%s", dep.Name, dep.Version))
	}

	args := []string{
		"-m", "pip", "install",
		"--no-deps",
		"--no-compile",
		"--no-cache-dir",
		"--force-reinstall",
		"--target", pkgsDir,
		"--platform", spec.Platform,
		"--python-version", spec.PythonVersion,
		"--implementation", spec.Implementation,
	}
	args = append(args, requirements...)

	p.logger.Info("installing application into staging tree",
		"platform", spec.Platform, "python", spec.PythonVersion, "packages", len(requirements))
	if err := p.run(ctx, args); err != nil {
		return fmt.Errorf("pip install failed: %w", err)
	}

	return ScrubDistInfo(pkgsDir, p.logger)
}

func (p *Packager) run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, p.pythonPath, args...)
	var stderr bytes.Buffer
	cmd.Stdout = os.Stdout
	cmd.Stderr = &stderr
	p.logger.Debug("exec", "cmd", p.pythonPath+" "+strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}

// scrubFiles are installer-convenience metadata files that embed absolute
// paths of the build machine. The staged package directory must not depend
// on where it was built.
var scrubFiles = []string{"direct_url.json", "INSTALLER", "REQUESTED"}

// ScrubDistInfo removes the scrub files from every *.dist-info directory
// under pkgsDir and drops the matching rows from each RECORD so the
// integrity manifest stays consistent with the directory contents.
func ScrubDistInfo(pkgsDir string, logger hclog.Logger) error {
	entries, err := os.ReadDir(pkgsDir)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", pkgsDir, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dist-info") {
			continue
		}
		distInfo := filepath.Join(pkgsDir, entry.Name())

		removed := make([]string, 0, len(scrubFiles))
		for _, name := range scrubFiles {
			path := filepath.Join(distInfo, name)
			if err := os.Remove(path); err == nil {
				removed = append(removed, entry.Name()+"/"+name)
			} else if !os.IsNotExist(err) {
				return fmt.Errorf("failed to remove %s: %w", path, err)
			}
		}
		if len(removed) == 0 {
			continue
		}
		if err := dropRecordRows(filepath.Join(distInfo, "RECORD"), removed); err != nil {
			return err
		}
		logger.Debug("scrubbed dist-info", "dir", entry.Name(), "files", removed)
	}
	return nil
}

// dropRecordRows rewrites RECORD without the rows whose path column matches
// one of the removed files.
func dropRecordRows(recordPath string, removed []string) error {
	data, err := os.ReadFile(recordPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", recordPath, err)
	}

	dropped := make(map[string]bool, len(removed))
	for _, name := range removed {
		dropped[name] = true
	}

	var kept []string
	for _, line := range strings.Split(string(data), "\n") {
		path, _, _ := strings.Cut(line, ",")
		if dropped[strings.TrimSpace(path)] {
			continue
		}
		kept = append(kept, line)
	}

	if err := xos.WriteFile(recordPath, []byte(strings.Join(kept, "\n")), 0644); err != nil {
		return fmt.Errorf("failed to rewrite %s: %w", recordPath, err)
	}
	return nil
}
