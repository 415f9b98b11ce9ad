package main

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"mqltools/internal/dialect"
	"mqltools/internal/format"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] <path> [path...]",
	Short: "Join spaced C'...' and D'...' literals in MQL sources",
	Long: `MetaEditor rejects colour and datetime literals with spaces after the
commas, such as C'255, 0, 0'. fmt rewrites them to C'255,0,0' in every MQL
file under the given paths, keeping the file encoding.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().Bool("check", false, "report files that need fixing without rewriting them")
	fmtCmd.Flags().Bool("stdout", false, "print the fixed source to stdout instead of rewriting files")
}

func runFmt(cmd *cobra.Command, args []string) error {
	check, err := cmd.Flags().GetBool("check")
	if err != nil {
		return err
	}
	writeToStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}
	if writeToStdout && check {
		return fmt.Errorf("fmt: --stdout cannot be used with --check")
	}

	files, err := collectMQLFiles(args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	out := cmd.OutOrStdout()
	changed := 0
	for _, path := range files {
		if check || writeToStdout {
			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			fixed, n, err := format.FixEncoded(data)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			if writeToStdout {
				if _, err := out.Write(fixed); err != nil {
					return err
				}
				continue
			}
			if n > 0 {
				changed++
				fmt.Fprintf(out, "%s: %d literal(s) to fix\n", path, n)
			}
			continue
		}
		n, err := format.FixFile(path)
		if err != nil {
			return err
		}
		if n > 0 {
			changed++
			if !quiet(cmd) {
				fmt.Fprintf(out, "%s: fixed %d literal(s)\n", path, n)
			}
		}
	}
	if check && changed > 0 {
		return reported(cmd)
	}
	return nil
}

// collectMQLFiles expands directories into the MQL files below them.
func collectMQLFiles(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}
		err = filepath.WalkDir(p, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path != p && len(d.Name()) > 1 && d.Name()[0] == '.' {
					return filepath.SkipDir
				}
				return nil
			}
			if dialect.IsSourceFile(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}
