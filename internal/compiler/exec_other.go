//go:build !windows

package compiler

import "os/exec"

// prepareCommand hands the switches over as separate arguments, which is
// what wine-style launchers expect.
func prepareCommand(cmd *exec.Cmd, _ string, args []string) {
	cmd.Args = append(cmd.Args, args...)
}
