// Package pipeline orchestrates the installer build: it resolves the
// manifest, checks preconditions, then runs the stages in order against an
// explicit set of run-scoped paths.
package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/hashicorp/go-hclog"

	"github.com/streamforge/winstaller/internal/assets"
	"github.com/streamforge/winstaller/internal/fetch"
	"github.com/streamforge/winstaller/internal/installer"
	"github.com/streamforge/winstaller/internal/manifest"
	"github.com/streamforge/winstaller/pkg/xos"
)

// Options configures one pipeline run. RepoURL and Ref override the
// manifest's git section when non-empty.
type Options struct {
	ConfigPath   string
	BuildName    string
	RepoURL      string
	Ref          string
	CacheDir     string
	DistDir      string
	FilesDir     string
	StrictAssets bool
	Logger       hclog.Logger
}

// staticFiles are copied verbatim from the files dir into the staging tree.
var staticFiles = []string{"LICENSE.txt", "config"}

// Run executes the full pipeline and returns the path of the installer it
// placed in the dist dir.
func Run(ctx context.Context, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	m, err := manifest.Load(opts.ConfigPath)
	if err != nil {
		return "", err
	}
	rb, err := m.Select(opts.BuildName)
	if err != nil {
		return "", err
	}

	if err := CheckEnvironment(); err != nil {
		return "", err
	}
	t, err := preflight(logger)
	if err != nil {
		return "", err
	}

	paths, err := NewPaths(opts.CacheDir, opts.DistDir, opts.FilesDir)
	if err != nil {
		return "", err
	}
	defer paths.Cleanup()

	repoURL := rb.Git.URL
	if opts.RepoURL != "" {
		repoURL = opts.RepoURL
	}
	ref := rb.Git.Ref
	if opts.Ref != "" {
		ref = opts.Ref
	}
	customRef := ref != rb.Git.Ref

	logger.Info("fetching source", "url", repoURL, "ref", ref)
	if err := t.git.Checkout(ctx, repoURL, ref, paths.Source); err != nil {
		return "", err
	}
	refIsTag := t.git.IsTag(ctx, paths.Source, ref)
	abbrevHash, err := t.git.AbbrevHash(ctx, paths.Source)
	if err != nil {
		return "", err
	}

	cache, err := fetch.NewCache(paths.Cache, logger.Named("fetch"))
	if err != nil {
		return "", err
	}
	embed := rb.Spec.Embed
	embedPath, err := cache.Fetch(ctx, embed.URL, embed.Filename, embed.SHA256)
	if err != nil {
		return "", fmt.Errorf("failed to fetch embedded runtime: %w", err)
	}
	for _, asset := range rb.Asset {
		if asset.Spec.URL == "" {
			continue
		}
		if _, err := cache.Fetch(ctx, asset.Spec.URL, asset.Spec.Filename, asset.Spec.SHA256); err != nil {
			return "", fmt.Errorf("failed to fetch asset %q: %w", asset.Name, err)
		}
	}

	logger.Info("installing application", "build", rb.Name, "platform", rb.Spec.Platform)
	if err := t.pip.Install(ctx, paths.Source, paths.Pkgs, rb.Spec); err != nil {
		return "", err
	}

	icoPath := filepath.Join(paths.Staging, "icon.ico")
	svgPath := filepath.Join(paths.Files, "icon.svg")
	if err := t.icons.Generate(ctx, svgPath, paths.Root, icoPath); err != nil {
		return "", err
	}

	wheelCount, err := t.wheels.Download(ctx, paths.Wheels, rb.Spec)
	if err != nil {
		return "", err
	}

	preparer := &assets.Preparer{
		CacheDir:   paths.Cache,
		StagingDir: paths.Staging,
		ExtractDir: paths.Extract,
		Strict:     opts.StrictAssets,
		Logger:     logger.Named("assets"),
	}
	if err := preparer.Prepare(rb.Asset); err != nil {
		return "", err
	}

	for _, name := range staticFiles {
		src := filepath.Join(paths.Files, name)
		dst := filepath.Join(paths.Staging, name)
		if err := xos.CopyFile(src, dst, 0644); err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", name, err)
		}
	}

	version, err := installer.ReadStagedVersion(paths.Pkgs, rb.App.Name)
	if err != nil {
		return "", err
	}
	version = installer.DisambiguateVersion(version, abbrevHash, customRef, refIsTag)
	info := installer.VersionInfo{
		Version:     version,
		FileVersion: installer.NumericFileVersion(version),
	}
	name := installer.InstallerFilename(rb.App.Name, info.Version, rb.App.ReleaseSuffix, rb.Name)
	logger.Info("derived version", "version", info.Version, "fileversion", info.FileVersion)

	conv, err := installer.SelectPathConverter(logger.Named("winpath"))
	if err != nil {
		return "", err
	}
	vars, err := templateVars(ctx, conv, paths, rb, info, name, embedPath)
	if err != nil {
		return "", err
	}

	cfgPath := filepath.Join(paths.Staging, "installer.cfg")
	nsiPath := filepath.Join(paths.Staging, "installer.nsi")
	rlog := logger.Named("render")
	if err := installer.RenderTemplate(filepath.Join(paths.Files, "installer.cfg.in"), cfgPath, vars, rlog); err != nil {
		return "", err
	}
	if err := installer.RenderTemplate(filepath.Join(paths.Files, "installer.nsi.in"), nsiPath, vars, rlog); err != nil {
		return "", err
	}
	if wheelCount == 0 {
		if err := installer.ExciseSection(cfgPath, "local_wheels"); err != nil {
			return "", err
		}
	}

	if err := installer.CheckRequiredFiles(paths.Staging); err != nil {
		return "", err
	}
	if err := t.nsist.Build(ctx, cfgPath, paths.Wheels, paths.Cache); err != nil {
		return "", err
	}

	builtPath := filepath.Join(paths.Staging, "build", "nsis", name)
	out, err := installer.Collect(builtPath, paths.Dist)
	if err != nil {
		return "", err
	}
	logger.Info("installer built", "path", out)
	return out, nil
}

// templateVars computes the substitution map for the installer templates.
// Paths cross into the installer compiler's world and are converted to the
// Windows convention.
func templateVars(ctx context.Context, conv installer.PathConverter, paths *Paths, rb *manifest.ResolvedBuild, info installer.VersionInfo, installerName, embedPath string) (map[string]string, error) {
	winPaths := map[string]string{
		"BUILD_DIR":    paths.Staging,
		"PKGS_DIR":     paths.Pkgs,
		"FILES_DIR":    paths.Files,
		"PYTHON_EMBED": embedPath,
	}

	vars := map[string]string{
		"APP_NAME":       rb.App.Name,
		"VERSION":        info.Version,
		"FILE_VERSION":   info.FileVersion,
		"INSTALLER_NAME": installerName,
		"PYTHON_VERSION": rb.Spec.Embed.Version,
	}
	for key, path := range winPaths {
		converted, err := conv.Convert(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("failed to convert %s: %w", path, err)
		}
		vars[key] = converted
	}
	return vars, nil
}
