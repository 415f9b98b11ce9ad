package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mqltools/internal/prof"
)

// setupProfiling starts the profilers requested by --cpu-profile and
// --mem-profile. The returned cleanup is safe to call more than once.
func setupProfiling(cmd *cobra.Command) (func(), error) {
	root := cmd.Root()
	cpuProfile, err := root.PersistentFlags().GetString("cpu-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get cpu-profile flag: %w", err)
	}
	memProfile, err := root.PersistentFlags().GetString("mem-profile")
	if err != nil {
		return nil, fmt.Errorf("failed to get mem-profile flag: %w", err)
	}
	if cpuProfile == "" && memProfile == "" {
		return func() {}, nil
	}
	session, err := prof.Start(prof.Options{CPU: cpuProfile, Heap: memProfile})
	if err != nil {
		return nil, err
	}
	return func() {
		if err := session.Stop(); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "profile: %v\n", err)
		}
	}, nil
}
