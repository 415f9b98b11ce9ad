package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"mqltools/internal/dialect"
	"mqltools/internal/help"
)

// helpCmd replaces cobra's help command: command names show usage, anything
// else is looked up in the MQL documentation.
var helpCmd = &cobra.Command{
	Use:   "help [command|keyword]",
	Short: "Show command help or the MQL documentation link for a keyword",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHelp,
}

func init() {
	helpCmd.Flags().String("mql", "", "documentation generation (4|5); detected from the workspace when empty")
	helpCmd.Flags().String("lang", "", "documentation language (en, ru, zh, ...); from settings when empty")
}

func runHelp(cmd *cobra.Command, args []string) error {
	root := cmd.Root()
	if len(args) == 0 {
		return root.Help()
	}
	if sub, _, err := root.Find(args); err == nil && sub != root {
		return sub.Help()
	}

	mql, err := cmd.Flags().GetString("mql")
	if err != nil {
		return fmt.Errorf("failed to get mql flag: %w", err)
	}
	lang, err := cmd.Flags().GetString("lang")
	if err != nil {
		return fmt.Errorf("failed to get lang flag: %w", err)
	}
	cfg, err := loadConfig(cmd, ".")
	if err != nil {
		return err
	}

	kind := dialect.Detect(cfg.Root, "")
	if strings.TrimSpace(mql) != "" {
		if kind, err = dialect.Parse(mql); err != nil {
			return err
		}
	}
	if kind == dialect.Unknown {
		kind = dialect.MQL5
	}
	if lang == "" {
		lang = cfg.HelpLanguage(kind)
	}

	topic := help.Resolve(kind, args[0], lang)
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, topic.URL)
	if !quiet(cmd) {
		fmt.Fprintf(out, "offline: %s (%s)\n", topic.CHM, topic.Dialect)
	}
	return nil
}
