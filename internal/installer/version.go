// Package installer derives installer metadata, renders the installer
// script and configuration templates, and drives the installer compiler.
package installer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// VersionInfo holds the derived version strings for one run.
type VersionInfo struct {
	// Version is the normalized release version used in filenames, for
	// example "7.1.3" or "7.1.3+27.gdeadbee".
	Version string
	// FileVersion is the purely numeric variant required by the Windows
	// binary version resource, for example "7.1.3.0" or "7.1.3.27".
	FileVersion string
}

// ReadStagedVersion reads the installed application's version from its
// dist-info directory under pkgsDir. The directory name encodes it as
// <name>-<version>.dist-info; the METADATA file is the fallback.
func ReadStagedVersion(pkgsDir, appName string) (string, error) {
	entries, err := os.ReadDir(pkgsDir)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", pkgsDir, err)
	}

	normalized := strings.ReplaceAll(strings.ToLower(appName), "-", "_")
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasSuffix(entry.Name(), ".dist-info") {
			continue
		}
		base := strings.TrimSuffix(entry.Name(), ".dist-info")
		name, version, ok := strings.Cut(base, "-")
		if !ok || strings.ToLower(name) != normalized {
			continue
		}
		if version != "" {
			return version, nil
		}
		return readMetadataVersion(filepath.Join(pkgsDir, entry.Name(), "METADATA"))
	}

	return "", fmt.Errorf("no dist-info found for %s in %s", appName, pkgsDir)
}

func readMetadataVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}
	for _, line := range strings.Split(string(data), "\n") {
		if v, ok := strings.CutPrefix(line, "Version:"); ok {
			return strings.TrimSpace(v), nil
		}
	}
	return "", fmt.Errorf("no Version field in %s", path)
}

// DisambiguateVersion appends a "+0.g<hash>" local suffix when a custom ref
// was requested, the ref is not a tag, and the version carries no suffix
// already. Without it, an installer built from an arbitrary branch would be
// indistinguishable from a tagged release.
func DisambiguateVersion(version, abbrevHash string, customRef, refIsTag bool) string {
	if !customRef || refIsTag || strings.Contains(version, "+") {
		return version
	}
	return fmt.Sprintf("%s+0.g%s", version, abbrevHash)
}

// NumericFileVersion derives the numeric-only version for the binary
// metadata field. A version without a local suffix gets ".0" appended; one
// with a suffix gets the suffix's leading numeric run appended instead.
func NumericFileVersion(version string) string {
	base, suffix, found := strings.Cut(version, "+")
	if !found {
		return base + ".0"
	}

	i := 0
	for i < len(suffix) && suffix[i] >= '0' && suffix[i] <= '9' {
		i++
	}
	run := suffix[:i]
	if run == "" {
		run = "0"
	}
	return base + "." + run
}

// InstallerFilename builds the deterministic output name from application
// name, derived version, release suffix, and build name.
func InstallerFilename(appName, version, releaseSuffix, buildName string) string {
	return fmt.Sprintf("%s-%s%s-%s.exe", appName, version, releaseSuffix, buildName)
}
