package cmd

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/streamforge/winstaller/internal/manifest"
)

//go:embed schemas/winstaller-config.v1.schema.json
var schemaFS embed.FS

var validateConfig string

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the build manifest",
	Long: `Validates the build manifest against the JSON Schema, then runs the
same semantic checks the build command performs before touching anything.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVarP(&validateConfig, "config", "c", "config.yml", "Build manifest path")
}

func runValidate(cmd *cobra.Command, args []string) error {
	fmt.Printf("🔍 Validating %s...\n", validateConfig)

	raw, err := os.ReadFile(validateConfig)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", validateConfig, err)
	}

	// gojsonschema wants JSON; round-trip the YAML document.
	var doc interface{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("failed to parse %s: %w", validateConfig, err)
	}
	docJSON, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to convert manifest to JSON: %w", err)
	}

	schemaBytes, err := schemaFS.ReadFile("schemas/winstaller-config.v1.schema.json")
	if err != nil {
		return fmt.Errorf("failed to load JSON schema: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaBytes),
		gojsonschema.NewBytesLoader(docJSON),
	)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		fmt.Println("\n❌ Validation failed with the following errors:")
		fmt.Println()
		for i, desc := range result.Errors() {
			fmt.Printf("%d. %s\n", i+1, desc.String())
			fmt.Printf("   Field: %s\n\n", desc.Field())
		}
		return fmt.Errorf("validation failed with %d errors", len(result.Errors()))
	}

	// Schema passed; make sure every build also resolves.
	m, err := manifest.Load(validateConfig)
	if err != nil {
		return err
	}
	for _, name := range m.Builds.Names {
		if _, err := m.Select(name); err != nil {
			return fmt.Errorf("❌ Build %q does not resolve: %w", name, err)
		}
	}

	fmt.Printf("✅ %s is valid (%d builds)\n", validateConfig, len(m.Builds.Names))
	return nil
}
