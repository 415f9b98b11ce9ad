//go:build windows

package compiler

import (
	"os/exec"
	"syscall"
)

// prepareCommand passes the command line verbatim; MetaEditor does its own
// parsing of the quoted /compile:"..." switches.
func prepareCommand(cmd *exec.Cmd, editor string, args []string) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CmdLine: CommandLine(editor, args)}
}
