//go:build windows

package execshell

import "os/exec"

func configureProcessGroup(executableCommand *exec.Cmd) {}

func terminateProcessTree(executableCommand *exec.Cmd) {
	if executableCommand.Process == nil {
		return
	}
	_ = executableCommand.Process.Kill()
}
