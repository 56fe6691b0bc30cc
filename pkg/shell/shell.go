// Package shell runs short-lived external commands with a hard
// timeout. The collector shells out to lsblk rather than reading sysfs
// directly, so the daemon works with whatever the distro ships.
package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

var ErrTimeout = errors.New("command timed out")

// Available reports whether a command exists on PATH.
func Available(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Output runs the command and returns its stdout. A non-zero exit
// wraps stderr into the error.
func Output(ctx context.Context, timeout time.Duration, name string, args ...string) ([]byte, error) {
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, name, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	if cctx.Err() == context.DeadlineExceeded {
		return outBuf.Bytes(), ErrTimeout
	}
	if err != nil {
		if errBuf.Len() > 0 {
			return outBuf.Bytes(), fmt.Errorf("%s: %w: %s", name, err, errBuf.String())
		}
		return outBuf.Bytes(), fmt.Errorf("%s: %w", name, err)
	}
	return outBuf.Bytes(), nil
}
