package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/streamforge/winstaller/internal/manifest"
)

var buildsConfig string

var buildsCmd = &cobra.Command{
	Use:   "builds",
	Short: "List builds declared in the manifest",
	Long:  `List the build names declared in the manifest, in document order. The first one is the default.`,
	RunE:  runBuilds,
}

func init() {
	rootCmd.AddCommand(buildsCmd)
	buildsCmd.Flags().StringVarP(&buildsConfig, "config", "c", "config.yml", "Build manifest path")
}

func runBuilds(cmd *cobra.Command, args []string) error {
	m, err := manifest.Load(buildsConfig)
	if err != nil {
		return err
	}
	for i, name := range m.Builds.Names {
		if i == 0 {
			fmt.Printf("%s (default)\n", name)
		} else {
			fmt.Println(name)
		}
	}
	return nil
}
