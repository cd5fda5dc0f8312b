// Package assets places downloaded build assets into the staging tree
// according to the per-asset file mappings declared in the manifest.
package assets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/streamforge/winstaller/internal/manifest"
	"github.com/streamforge/winstaller/pkg/xos"
)

// Preparer unpacks archive assets and copies mapped files into the staging
// build tree.
type Preparer struct {
	// CacheDir holds the downloaded asset files, keyed by filename.
	CacheDir string
	// StagingDir is the build tree all targets must stay inside.
	StagingDir string
	// ExtractDir receives per-asset extraction subdirectories.
	ExtractDir string
	// Strict turns malformed asset entries into fatal errors instead of
	// warnings.
	Strict bool

	Logger hclog.Logger
}

// Prepare processes every asset referenced by the build, in declared order.
func (p *Preparer) Prepare(resolved []manifest.NamedAsset) error {
	for _, asset := range resolved {
		if err := p.prepareOne(asset); err != nil {
			if p.Strict {
				return fmt.Errorf("asset %q: %w", asset.Name, err)
			}
			p.Logger.Warn("skipping malformed asset", "asset", asset.Name, "error", err)
		}
	}
	return nil
}

func (p *Preparer) prepareOne(asset manifest.NamedAsset) error {
	spec := asset.Spec
	if spec.Filename == "" {
		return fmt.Errorf("missing filename")
	}

	sourceDir := p.CacheDir
	if spec.Type != "" {
		extractDir := filepath.Join(p.ExtractDir, "asset-"+asset.Name)
		if err := Extract(filepath.Join(p.CacheDir, spec.Filename), spec.Type, extractDir); err != nil {
			return fmt.Errorf("failed to extract: %w", err)
		}
		sourceDir = extractDir
	}
	if spec.SourceDir != "" {
		sourceDir = filepath.Join(sourceDir, filepath.FromSlash(spec.SourceDir))
	}

	for _, mapping := range spec.Files {
		if mapping.From == "" || mapping.To == "" {
			p.Logger.Warn("skipping empty file mapping", "asset", asset.Name)
			continue
		}
		src := filepath.Join(sourceDir, filepath.FromSlash(mapping.From))
		dst, err := p.stagingTarget(spec.TargetDir, mapping.To)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(dst), err)
		}
		if err := xos.CopyFile(src, dst, 0644); err != nil {
			return fmt.Errorf("failed to copy %s: %w", mapping.From, err)
		}
		p.Logger.Debug("staged asset file", "asset", asset.Name, "from", mapping.From, "to", dst)
	}

	return nil
}

// stagingTarget computes the target path for a mapping and guarantees it
// stays inside the staging build tree.
func (p *Preparer) stagingTarget(targetDir, to string) (string, error) {
	dst := filepath.Join(p.StagingDir, filepath.FromSlash(targetDir), filepath.FromSlash(to))
	if !strings.HasPrefix(dst, p.StagingDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("target %q escapes staging tree", to)
	}
	return dst, nil
}
