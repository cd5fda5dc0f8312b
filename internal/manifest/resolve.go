package manifest

// ResolvedBuild is the fully resolved selection for one run: application and
// source metadata plus the chosen build's parameters and its assets in the
// order the build references them.
type ResolvedBuild struct {
	App   AppConfig
	Git   GitConfig
	Name  string
	Spec  BuildSpec
	Asset []NamedAsset
}

// NamedAsset pairs an asset with its manifest key.
type NamedAsset struct {
	Name string
	Spec AssetSpec
}

// Select resolves the requested build name against the manifest. An empty
// name selects the first build in document order. Selection is a pure read;
// it never touches the filesystem.
func (m *Manifest) Select(name string) (*ResolvedBuild, error) {
	if name == "" {
		name = m.Builds.Names[0]
	}

	spec, ok := m.Builds.Builds[name]
	if !ok {
		return nil, configErrorf("unknown build %q (available: %v)", name, m.Builds.Names)
	}

	if spec.Platform == "" {
		return nil, configErrorf("build %q: platform is required", name)
	}
	if spec.PythonVersion == "" {
		return nil, configErrorf("build %q: pythonversion is required", name)
	}
	if spec.Implementation == "" {
		return nil, configErrorf("build %q: implementation is required", name)
	}
	if spec.Embed.URL == "" || spec.Embed.Filename == "" {
		return nil, configErrorf("build %q: pythonembed url and filename are required", name)
	}
	if spec.Embed.SHA256 == "" {
		return nil, configErrorf("build %q: pythonembed sha256 is required", name)
	}

	resolved := &ResolvedBuild{
		App:  m.App,
		Git:  m.Git,
		Name: name,
		Spec: spec,
	}

	for _, assetName := range spec.Assets {
		assetSpec, ok := m.Assets.Assets[assetName]
		if !ok {
			return nil, configErrorf("build %q references undeclared asset %q", name, assetName)
		}
		resolved.Asset = append(resolved.Asset, NamedAsset{Name: assetName, Spec: assetSpec})
	}

	return resolved, nil
}
