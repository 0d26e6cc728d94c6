package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/claudeck/claudeck/internal/install"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Install the hook producer and register it in the settings file",
	Long: `Install the claudeck hook script into the hooks directory and patch
.claude/settings.json so Claude Code invokes it on tool use. Both steps
are idempotent.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	paths := resolvedPaths()

	if err := install.Run(install.Options{HooksDir: paths.HooksDir}, nil); err != nil {
		return fmt.Errorf("init failed: %w", err)
	}

	fmt.Printf("Hook script installed in %s\n", paths.HooksDir)
	fmt.Println("Settings patched: .claude/settings.json")
	return nil
}
