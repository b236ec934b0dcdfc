//go:build !windows

package execshell

import (
	"os/exec"
	"syscall"
)

func configureProcessGroup(executableCommand *exec.Cmd) {
	executableCommand.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

// terminateProcessTree kills the child's process group so descendants spawned
// by shell commands terminate together with the command itself.
func terminateProcessTree(executableCommand *exec.Cmd) {
	if executableCommand.Process == nil {
		return
	}

	processGroupIdentifier, groupLookupError := syscall.Getpgid(executableCommand.Process.Pid)
	if groupLookupError == nil {
		if killError := syscall.Kill(-processGroupIdentifier, syscall.SIGKILL); killError == nil {
			return
		}
	}

	_ = executableCommand.Process.Kill()
}
