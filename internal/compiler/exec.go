package compiler

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// execEditor runs MetaEditor. Its exit status does not reflect the compile
// result, so a non-zero exit is not an error; the log decides.
func execEditor(ctx context.Context, editor string, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, editor)
	prepareCommand(cmd, editor, args)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && ctx.Err() == nil {
		err = nil
	}
	return stderr.String(), err
}
