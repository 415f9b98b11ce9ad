package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mqltools/internal/workspace"
)

var flagsCmd = &cobra.Command{
	Use:   "flags [workspace]",
	Short: "Print the clangd flags composed for a workspace",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runFlags,
}

func init() {
	flagsCmd.Flags().String("format", "text", "output format (text|json)")
}

type flagsPayload struct {
	Workspace string   `json:"workspace"`
	Dialect   string   `json:"dialect"`
	Flags     []string `json:"flags"`
}

func runFlags(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	root := "."
	if len(args) == 1 {
		root = args[0]
	}
	root, err = filepath.Abs(root)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cmd, root)
	if err != nil {
		return err
	}
	kind, set := workspace.Flags(cfg, root)

	out := cmd.OutOrStdout()
	switch strings.ToLower(format) {
	case "text":
		if !quiet(cmd) {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s workspace %s\n", kind, root)
		}
		for _, f := range set {
			fmt.Fprintln(out, f)
		}
		return nil
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(flagsPayload{Workspace: root, Dialect: kind.String(), Flags: set})
	default:
		return fmt.Errorf("unsupported format %q (must be text or json)", format)
	}
}
