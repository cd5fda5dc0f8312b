package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"
)

var (
	rootLogLevel string
	rootVerbose  bool
)

var rootCmd = &cobra.Command{
	Use:   "winstaller",
	Short: "winstaller - Windows installer builds for streamforge",
	Long: `winstaller assembles a Windows installer for the streamforge CLI.

It fetches the application source at a git ref, downloads the embeddable
Python runtime and binary assets, stages everything into a temporary build
tree, renders the installer templates, and runs pynsist to produce the final
executable installer.`,
	Version: "1.0.0",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", "info", "Log level (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().BoolVarP(&rootVerbose, "verbose", "v", false, "Shorthand for --log-level=debug")
}

func newLogger() hclog.Logger {
	level := hclog.LevelFromString(rootLogLevel)
	if rootVerbose {
		level = hclog.Debug
	}
	return hclog.New(&hclog.LoggerOptions{
		Name:  "winstaller",
		Level: level,
	})
}
