package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mqltools/internal/workspace"
)

var setupCmd = &cobra.Command{
	Use:   "setup [workspace]",
	Short: "Write compile_commands.json, .clangd and editor settings",
	Long: `Prepare an MQL folder for clangd: write compile_commands.json for every
source, a .clangd file that silences diagnostics clangd cannot understand, and
merge the composed flags into .vscode/settings.json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSetup,
}

func init() {
	setupCmd.Flags().Bool("no-clangd", false, "do not write .clangd")
	setupCmd.Flags().Bool("no-settings", false, "do not touch .vscode/settings.json")
}

func runSetup(cmd *cobra.Command, args []string) error {
	skipClangd, err := cmd.Flags().GetBool("no-clangd")
	if err != nil {
		return fmt.Errorf("failed to get no-clangd flag: %w", err)
	}
	skipSettings, err := cmd.Flags().GetBool("no-settings")
	if err != nil {
		return fmt.Errorf("failed to get no-settings flag: %w", err)
	}
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}

	res, err := workspace.Setup(cmd.Context(), cfg, root, workspace.Options{
		SkipClangd:   skipClangd,
		SkipSettings: skipSettings,
	})
	if err != nil {
		cmd.SilenceUsage = true
		return err
	}
	if quiet(cmd) {
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s workspace %s (%d files, %d flags)\n", res.Dialect, res.Root, res.Files, len(res.Flags))
	if res.Commands {
		fmt.Fprintln(out, "  - compile_commands.json")
	} else {
		fmt.Fprintln(out, "  - compile_commands.json (unchanged)")
	}
	if res.Clangd {
		fmt.Fprintln(out, "  - .clangd")
	}
	if res.Settings != "" {
		fmt.Fprintf(out, "  - %s\n", res.Settings)
	}
	return nil
}
