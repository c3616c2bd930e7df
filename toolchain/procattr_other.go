//go:build !unix

package toolchain

import "os/exec"

func setProcessGroup(cmd *exec.Cmd) {}

// killProcessGroup kills the process of a started command.  Processes it
// spawned are not tracked.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}

	return cmd.Process.Kill()
}
