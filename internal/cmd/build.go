package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/streamforge/winstaller/internal/pipeline"
)

var (
	buildConfig       string
	buildCacheDir     string
	buildDistDir      string
	buildFilesDir     string
	buildStrictAssets bool
)

var buildCmd = &cobra.Command{
	Use:   "build [build-name] [repo-url] [ref]",
	Short: "Build a Windows installer",
	Long: `Build a Windows installer for the named build variant.

The build name defaults to the first build declared in the manifest.
A repository URL and ref may be given to build from a fork or an
unreleased commit instead of the manifest's defaults.

Examples:
  winstaller build                                  # default build, manifest git ref
  winstaller build py313-x86                        # specific build variant
  winstaller build py313-x86_64 "" 7.2.0            # manifest repo at tag 7.2.0
  winstaller build py313-x86_64 https://github.com/fork/streamforge.git feature-branch`,
	Args: cobra.MaximumNArgs(3),
	RunE: runBuild,
}

func init() {
	rootCmd.AddCommand(buildCmd)
	buildCmd.Flags().StringVarP(&buildConfig, "config", "c", "config.yml", "Build manifest path")
	buildCmd.Flags().StringVar(&buildCacheDir, "cache-dir", "cache", "Download cache directory")
	buildCmd.Flags().StringVar(&buildDistDir, "dist-dir", "dist", "Output directory for built installers")
	buildCmd.Flags().StringVar(&buildFilesDir, "files-dir", "files", "Directory with templates and static files")
	buildCmd.Flags().BoolVar(&buildStrictAssets, "strict-assets", false, "Treat malformed asset entries as fatal")
}

func runBuild(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := pipeline.Options{
		ConfigPath:   buildConfig,
		CacheDir:     buildCacheDir,
		DistDir:      buildDistDir,
		FilesDir:     buildFilesDir,
		StrictAssets: buildStrictAssets,
		Logger:       newLogger(),
	}
	if len(args) > 0 {
		opts.BuildName = args[0]
	}
	if len(args) > 1 {
		opts.RepoURL = args[1]
	}
	if len(args) > 2 {
		opts.Ref = args[2]
	}

	if opts.BuildName != "" {
		fmt.Printf("🚧 Building installer [%s]...\n", opts.BuildName)
	} else {
		fmt.Println("🚧 Building installer...")
	}

	out, err := pipeline.Run(ctx, opts)
	if err != nil {
		return fmt.Errorf("❌ Build failed: %w", err)
	}

	fmt.Printf("✅ Installer written to %s\n", out)
	return nil
}
