package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/streamforge/winstaller/pkg/xos"
)

// Paths holds every directory one run touches. The run-scoped directories
// live under Root and are removed when the run ends; Cache, Dist and Files
// are the only locations shared across runs.
type Paths struct {
	// Root is the run-scoped temporary directory everything below it
	// hangs off.
	Root string
	// Source receives the application checkout.
	Source string
	// Staging is the build tree handed to the installer compiler.
	Staging string
	// Pkgs is the packaged-dependency directory inside the staging tree.
	Pkgs string
	// Wheels receives downloaded dependency artifacts.
	Wheels string
	// Extract receives per-asset archive extraction subdirectories.
	Extract string

	// Cache is the persistent download cache, keyed by filename.
	Cache string
	// Dist accumulates one installer per run.
	Dist string
	// Files holds the static collaborator files (templates, license,
	// icon source, runtime config).
	Files string
}

// NewPaths creates the run-scoped directory tree. The caller must arrange
// removal of Root on every exit path.
func NewPaths(cacheDir, distDir, filesDir string) (*Paths, error) {
	root, err := os.MkdirTemp("", "winstaller-")
	if err != nil {
		return nil, fmt.Errorf("failed to create build directory: %w", err)
	}

	p := &Paths{
		Root:    root,
		Source:  filepath.Join(root, "source"),
		Staging: filepath.Join(root, "build"),
		Pkgs:    filepath.Join(root, "build", "pkgs"),
		Wheels:  filepath.Join(root, "wheels"),
		Extract: filepath.Join(root, "assets"),
		Cache:   cacheDir,
		Dist:    distDir,
		Files:   filesDir,
	}

	for _, dir := range []string{p.Source, p.Pkgs, p.Wheels, p.Extract, p.Cache, p.Dist} {
		if err := xos.CreateDir(dir, 0755); err != nil {
			os.RemoveAll(root)
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	return p, nil
}

// Cleanup removes the run-scoped tree. Safe to call more than once.
func (p *Paths) Cleanup() {
	if p.Root != "" {
		os.RemoveAll(p.Root)
	}
}
