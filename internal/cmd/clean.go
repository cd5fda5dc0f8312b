package cmd

import (
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
)

var (
	cleanCacheDir string
	cleanDistDir  string
	cleanAll      bool
	cleanYes      bool
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove the download cache",
	Long: `Remove the download cache. Cached runtime archives and assets will be
re-downloaded on the next build.

Use --all to also remove built installers from the dist directory.`,
	RunE: runClean,
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanCmd.Flags().StringVar(&cleanCacheDir, "cache-dir", "cache", "Download cache directory")
	cleanCmd.Flags().StringVar(&cleanDistDir, "dist-dir", "dist", "Output directory for built installers")
	cleanCmd.Flags().BoolVar(&cleanAll, "all", false, "Also remove built installers")
	cleanCmd.Flags().BoolVarP(&cleanYes, "yes", "y", false, "Skip confirmation")
}

func runClean(cmd *cobra.Command, args []string) error {
	targets := []string{cleanCacheDir}
	if cleanAll {
		targets = append(targets, cleanDistDir)
	}

	var existing []string
	for _, dir := range targets {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			existing = append(existing, dir)
		}
	}
	if len(existing) == 0 {
		fmt.Println("Nothing to clean.")
		return nil
	}

	if !cleanYes {
		for _, dir := range existing {
			fmt.Printf("   - %s\n", dir)
		}
		prompt := promptui.Prompt{
			Label:     "Remove the directories above",
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	for _, dir := range existing {
		fmt.Printf("🗑️  Removing %s...\n", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("failed to remove %s: %w", dir, err)
		}
	}

	fmt.Println("✅ Clean completed")
	return nil
}
