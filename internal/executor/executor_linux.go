//go:build linux

package executor

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// waitStatus is the wait-status representation shared between the
// ptraced and non-ptraced child-wait paths: internal/sandbox.Tracer.Run
// already returns a unix.WaitStatus, and a non-ptraced cmd.Wait's
// syscall.WaitStatus has the identical bit layout on Linux.
type waitStatus = unix.WaitStatus

// setPtrace arranges for cmd's child to stop itself with
// PTRACE_TRACEME immediately after exec, so the parent can attach
// Layer B before any of the child's own code (including its own
// process-startup syscalls) runs.
func setPtrace(cmd *exec.Cmd) {
	if cmd.SysProcAttr == nil {
		cmd.SysProcAttr = &syscall.SysProcAttr{}
	}
	cmd.SysProcAttr.Ptrace = true
}

// waitStatusFromCmdErr extracts the wait status cmd.Wait already
// observed internally. err is intentionally unused: exec.Cmd populates
// ProcessState whenever the process was successfully started, whether
// or not Wait returned an error.
func waitStatusFromCmdErr(cmd *exec.Cmd, err error) waitStatus {
	if cmd.ProcessState == nil {
		return unix.WaitStatus(0)
	}
	if sys, ok := cmd.ProcessState.Sys().(syscall.WaitStatus); ok {
		return unix.WaitStatus(sys)
	}
	return unix.WaitStatus(0)
}
