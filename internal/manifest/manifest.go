// Package manifest loads and resolves the declarative build manifest
// (config.yml) that describes every installer variant.
package manifest

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ConfigError reports a missing or invalid manifest condition. It is
// returned by Load and Select before any filesystem side effect.
type ConfigError struct {
	msg string
}

func (e *ConfigError) Error() string { return e.msg }

func configErrorf(format string, args ...interface{}) error {
	return &ConfigError{msg: fmt.Sprintf(format, args...)}
}

// Manifest is the parsed config.yml. It is loaded once per run and never
// mutated afterwards.
type Manifest struct {
	App    AppConfig `yaml:"app"`
	Git    GitConfig `yaml:"git"`
	Builds BuildMap  `yaml:"builds"`
	Assets AssetMap  `yaml:"assets"`
}

// AppConfig holds application metadata used for installer naming.
type AppConfig struct {
	Name          string `yaml:"name"`
	ReleaseSuffix string `yaml:"release_suffix"`
}

// GitConfig holds the default source repository location and ref.
type GitConfig struct {
	URL string `yaml:"url"`
	Ref string `yaml:"ref"`
}

// BuildSpec describes one buildable installer variant.
type BuildSpec struct {
	Implementation string       `yaml:"implementation"`
	PythonVersion  string       `yaml:"pythonversion"`
	Platform       string       `yaml:"platform"`
	Embed          EmbedConfig  `yaml:"pythonembed"`
	Dependencies   []Dependency `yaml:"dependencies"`
	Assets         []string     `yaml:"assets"`
}

// EmbedConfig describes the embeddable Python runtime package.
type EmbedConfig struct {
	Version  string `yaml:"version"`
	Filename string `yaml:"filename"`
	URL      string `yaml:"url"`
	SHA256   string `yaml:"sha256"`
}

// Dependency is a pinned application dependency. Hash is optional; when
// present the wheel download step requires it.
type Dependency struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Hash    string `yaml:"hash,omitempty"`
}

// AssetSpec describes an externally sourced file or archive and how its
// contents map into the staging tree.
type AssetSpec struct {
	Filename  string        `yaml:"filename"`
	URL       string        `yaml:"url"`
	SHA256    string        `yaml:"sha256"`
	Type      string        `yaml:"type"` // "", "zip", "tar.gz", "tar.bz2"
	SourceDir string        `yaml:"sourcedir"`
	TargetDir string        `yaml:"targetdir"`
	Files     []FileMapping `yaml:"files"`
}

// FileMapping copies one file out of an asset into the staging tree.
type FileMapping struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// BuildMap preserves the document order of the builds mapping: the first
// declared build is the default when no name is requested.
type BuildMap struct {
	Names  []string
	Builds map[string]BuildSpec
}

// UnmarshalYAML decodes the builds mapping keeping key order.
func (m *BuildMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("builds must be a mapping")
	}
	m.Builds = make(map[string]BuildSpec, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var spec BuildSpec
		if err := node.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("build %q: %w", name, err)
		}
		m.Names = append(m.Names, name)
		m.Builds[name] = spec
	}
	return nil
}

// AssetMap is the assets mapping; order does not matter here, unlike builds,
// but the same decoding keeps behaviour uniform.
type AssetMap struct {
	Names  []string
	Assets map[string]AssetSpec
}

// UnmarshalYAML decodes the assets mapping keeping key order.
func (m *AssetMap) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("assets must be a mapping")
	}
	m.Assets = make(map[string]AssetSpec, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		var spec AssetSpec
		if err := node.Content[i+1].Decode(&spec); err != nil {
			return fmt.Errorf("asset %q: %w", name, err)
		}
		m.Names = append(m.Names, name)
		m.Assets[name] = spec
	}
	return nil
}

// Load reads and parses the manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, configErrorf("manifest not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, configErrorf("failed to parse manifest: %v", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}

	return &m, nil
}

// Validate checks manifest-level required fields.
func (m *Manifest) Validate() error {
	if m.App.Name == "" {
		return configErrorf("app.name is required")
	}
	if m.Git.URL == "" {
		return configErrorf("git.url is required")
	}
	if m.Git.Ref == "" {
		return configErrorf("git.ref is required")
	}
	if len(m.Builds.Names) == 0 {
		return configErrorf("at least one build must be declared")
	}
	return nil
}
