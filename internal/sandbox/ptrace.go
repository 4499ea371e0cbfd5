//go:build linux

package sandbox

import (
	"bytes"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/errs"
)

// pathSyscallArg names the syscalls Layer B inspects and which argument
// register holds their path, on amd64. open/stat/lstat take the path as
// their first argument (Rdi); openat takes it as its second (Rsi).
var pathSyscallArg = map[uint64]int{
	uint64(unix.SYS_OPEN):   0,
	uint64(unix.SYS_STAT):   0,
	uint64(unix.SYS_LSTAT):  0,
	uint64(unix.SYS_OPENAT): 1,
}

// Tracer runs Layer B: it single-steps a ptraced child's syscalls and
// enforces the expanded path allowlist against stat/lstat/open/openat.
type Tracer struct {
	allowed map[string]bool
	// denyPending remembers, across one syscall's enter/exit stop pair,
	// whether that syscall was neutralized and must report -EPERM.
	denyPending bool
}

// NewTracer builds a Tracer from an already-expanded allowlist.
func NewTracer(expanded []string) *Tracer {
	m := make(map[string]bool, len(expanded))
	for _, p := range expanded {
		m[p] = true
	}
	return &Tracer{allowed: m}
}

// Run traces pid, which must already be stopped at the post-execve
// PTRACE_TRACEME signal (the state os/exec leaves a child in when started
// with SysProcAttr.Ptrace = true). It returns once the child exits or is
// killed, reporting the final wait status. A seccomp kill (Layer A)
// surfaces here as an ordinary signal-death status; Run does not treat it
// specially — it is the executor's job to decide that a sandboxed child's
// death is not fatal to the parent.
func (t *Tracer) Run(pid int) (unix.WaitStatus, error) {
	var ws unix.WaitStatus
	if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
		return ws, errs.SandboxError("ptrace: initial wait", annotate(err))
	}
	if ws.Exited() || ws.Signaled() {
		return ws, nil
	}
	if err := unix.PtraceSetOptions(pid, unix.PTRACE_O_TRACESYSGOOD); err != nil {
		return ws, errs.SandboxError("ptrace: set options", annotate(err))
	}

	atEnter := true
	sig := 0
	for {
		if err := unix.PtraceSyscall(pid, sig); err != nil {
			return ws, errs.SandboxError("ptrace: syscall restart", err)
		}
		sig = 0
		if _, err := unix.Wait4(pid, &ws, 0, nil); err != nil {
			return ws, errs.SandboxError("ptrace: wait", err)
		}
		if ws.Exited() || ws.Signaled() {
			return ws, nil
		}
		if !isSyscallStop(ws) {
			// A genuine stop signal, not our syscall-stop marker:
			// forward it transparently on the next restart.
			sig = int(ws.StopSignal())
			continue
		}

		if atEnter {
			if err := t.onEnter(pid); err != nil {
				return ws, err
			}
		} else if t.denyPending {
			if err := t.onExitDenied(pid); err != nil {
				return ws, err
			}
			t.denyPending = false
		}
		atEnter = !atEnter
	}
}

// onEnter inspects one syscall-entry stop. If it names a path-bearing
// syscall whose path is not in the allowlist, it neutralizes the call by
// rewriting the syscall number to an invalid one, so the kernel does
// nothing and the matching exit stop sees -ENOSYS; onExitDenied then
// rewrites that to -EPERM.
func (t *Tracer) onEnter(pid int) error {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return errs.SandboxError("ptrace: getregs", err)
	}

	argIdx, tracked := pathSyscallArg[regs.Orig_rax]
	if !tracked {
		return nil
	}

	path, err := readCString(pid, uintptr(argOf(&regs, argIdx)))
	allow := err == nil && t.allowed[path]
	if allow {
		return nil
	}

	const invalidSyscallNr = ^uint64(0) // guaranteed -ENOSYS on return
	regs.Orig_rax = invalidSyscallNr
	if err := unix.PtraceSetRegs(pid, &regs); err != nil {
		return errs.SandboxError("ptrace: setregs (deny)", err)
	}
	t.denyPending = true
	return nil
}

// onExitDenied forces the return value of a neutralized syscall to
// -EPERM, the error a denied path-bearing call must report.
func (t *Tracer) onExitDenied(pid int) error {
	var regs unix.PtraceRegs
	if err := unix.PtraceGetRegs(pid, &regs); err != nil {
		return errs.SandboxError("ptrace: getregs (exit)", err)
	}
	regs.Rax = uint64(-int64(unix.EPERM))
	if err := unix.PtraceSetRegs(pid, &regs); err != nil {
		return errs.SandboxError("ptrace: setregs (exit)", err)
	}
	return nil
}

func argOf(regs *unix.PtraceRegs, idx int) uint64 {
	switch idx {
	case 0:
		return regs.Rdi
	case 1:
		return regs.Rsi
	case 2:
		return regs.Rdx
	default:
		return 0
	}
}

// readCString reads a NUL-terminated string out of the traced process's
// memory at addr via /proc/pid/mem, which is simpler than repeated
// PTRACE_PEEKDATA word reads.
func readCString(pid int, addr uintptr) (string, error) {
	if addr == 0 {
		return "", xerrors.Errorf("null path pointer")
	}
	f, err := os.OpenFile("/proc/"+strconv.Itoa(pid)+"/mem", os.O_RDONLY, 0)
	if err != nil {
		return "", err
	}
	defer f.Close()

	const maxPath = 4096
	buf := make([]byte, maxPath)
	n, err := f.ReadAt(buf, int64(addr))
	if n == 0 && err != nil {
		return "", err
	}
	buf = buf[:n]
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i]), nil
	}
	return "", xerrors.Errorf("path argument not NUL-terminated within %d bytes", maxPath)
}

func isSyscallStop(ws unix.WaitStatus) bool {
	return ws.Stopped() && ws.StopSignal()&0x80 != 0
}

// annotate appends a fixable-cause suggestion to err when one applies,
// so a SandboxError surfaces actionable advice instead of a bare EPERM.
func annotate(err error) error {
	if hint := diagnoseTraceFailure(); hint != "" {
		return xerrors.Errorf("%w (%s)", err, hint)
	}
	return err
}
