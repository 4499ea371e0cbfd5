package sandbox

// InstallChildSide installs Layer A (the kernel seccomp-BPF allowlist) in
// the calling process. It must run in the UDF's child process, after the
// runtime tables are populated and immediately before the entry symbol is
// invoked: once installed, any syscall outside the fixed allowlist kills
// the process. It is idempotent in the sense that calling it more than
// once only stacks an equivalent filter; ok is false if either the filter
// could not be built or the kernel refused to load it, which the
// executor must treat as a fatal pre-run error.
func InstallChildSide() (ok bool) {
	if err := InstallSeccomp(); err != nil {
		return false
	}
	return true
}
