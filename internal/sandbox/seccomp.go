package sandbox

import (
	seccomp "github.com/seccomp/libseccomp-golang"

	"github.com/gridsynth/udfrun/internal/errs"
)

// unconditionalSyscalls are admitted regardless of argument values: process
// termination/memory management, stream socket use and name resolution.
var unconditionalSyscalls = []string{
	// process termination and memory management
	"brk", "exit_group", "mmap", "munmap", "mprotect", "lseek", "futex", "uname",
	// stream socket use and name resolution
	"socket", "setsockopt", "connect", "select", "poll",
	"read", "recv", "recvfrom",
	"write", "send", "sendto", "sendmsg",
	"close",
	// name-resolution file access (stat family; open/openat are restricted
	// below, not listed here)
	"stat", "lstat", "fstat",
}

// O_ACCMODE masks the access-mode bits of an open/openat flags argument;
// O_RDONLY is 0, so "restricted to read-only" is expressible as a masked
// equality against zero.
const (
	oAccMode = 0x3
	oRDONLY  = 0x0
	fIONREAD = 0x541B
)

// InstallSeccomp installs the Layer A kernel syscall allowlist: default
// action kill, admitting process lifecycle, memory management, socket
// I/O, and name-resolution syscalls, with open/openat restricted to
// read-only and ioctl restricted to the byte-count query. It is
// idempotent per process in the sense that
// calling it twice simply loads the same filter twice; the kernel treats
// a second seccomp_load as stacking an additional filter, which is
// harmless here since both filters agree.
func InstallSeccomp() error {
	filter, err := seccomp.NewFilter(seccomp.ActKill)
	if err != nil {
		return errs.SandboxError("seccomp: new filter", err)
	}
	defer filter.Release()

	for _, name := range unconditionalSyscalls {
		sc, err := seccomp.GetSyscallFromName(name)
		if err != nil {
			// Not every syscall name exists on every architecture (e.g.
			// a 32-bit-only recv variant); skip silently rather than
			// failing the whole sandbox over an unavailable name.
			continue
		}
		if err := filter.AddRule(sc, seccomp.ActAllow); err != nil {
			return errs.SandboxError("seccomp: add rule "+name, err)
		}
	}

	if err := allowReadOnly(filter, "open", 1); err != nil {
		return err
	}
	if err := allowReadOnly(filter, "openat", 2); err != nil {
		return err
	}
	if err := allowIoctlByteCountQuery(filter); err != nil {
		return err
	}

	if err := filter.Load(); err != nil {
		return errs.SandboxError("seccomp: load", err)
	}
	return nil
}

// allowReadOnly admits name only when its flags argument (at argIndex)
// has O_ACCMODE bits equal to O_RDONLY.
func allowReadOnly(filter *seccomp.ScmpFilter, name string, argIndex uint) error {
	sc, err := seccomp.GetSyscallFromName(name)
	if err != nil {
		// Architecture without this syscall (e.g. openat2-only kernels
		// still export openat, so this should be rare); not fatal.
		return nil
	}
	cond, err := seccomp.MakeCondition(argIndex, seccomp.CompareMaskedEqual, oAccMode, oRDONLY)
	if err != nil {
		return errs.SandboxError("seccomp: condition for "+name, err)
	}
	if err := filter.AddRuleConditional(sc, seccomp.ActAllow, []seccomp.ScmpCondition{cond}); err != nil {
		return errs.SandboxError("seccomp: conditional rule "+name, err)
	}
	return nil
}

// allowIoctlByteCountQuery admits ioctl only for the FIONREAD request.
func allowIoctlByteCountQuery(filter *seccomp.ScmpFilter) error {
	sc, err := seccomp.GetSyscallFromName("ioctl")
	if err != nil {
		return nil
	}
	cond, err := seccomp.MakeCondition(1, seccomp.CompareEqual, fIONREAD)
	if err != nil {
		return errs.SandboxError("seccomp: condition for ioctl", err)
	}
	if err := filter.AddRuleConditional(sc, seccomp.ActAllow, []seccomp.ScmpCondition{cond}); err != nil {
		return errs.SandboxError("seccomp: conditional rule ioctl", err)
	}
	return nil
}
