package sandbox

// Layer B is conceptually an in-process syscall interceptor — a
// user-space shim that hooks a syscall wrapper before it reaches libc,
// so it can inspect pointer arguments a kernel allowlist alone cannot
// see. In target languages without a native interceptor, that requires
// either a small C shim or a platform-equivalent library binding.
//
// Go has no supported way to intercept another shared object's libc
// symbol resolution from inside the same process (no LD_PRELOAD-style
// hook point reachable from pure/cgo-free Go), so this module takes the
// platform-equivalent-binding route instead: the parent traces the
// child via ptrace (attached through os/exec's SysProcAttr.Ptrace, the
// same mechanism Go's own runtime/debugger tooling uses), single-stepping
// syscall-enter/syscall-exit stops and inspecting path arguments directly
// out of the child's memory. The externally observable behavior is
// identical either way: a path outside the expanded allowlist causes the
// syscall to return -EPERM without ever reaching the kernel's
// file-lookup code; a path inside it is dispatched unchanged. Layer A
// (the kernel seccomp-BPF filter) still runs inside the child itself,
// immediately before the entry symbol is invoked; the two layers remain
// independent.
