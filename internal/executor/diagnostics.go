package executor

// Diagnostics carries the child's raw wait status, which would
// otherwise be discarded. Run returns this alongside (never instead of)
// its documented boolean result; callers that don't care can ignore it
// entirely, since it never changes that true/false contract.
type Diagnostics struct {
	// Ran is false when Run failed before it could observe the child's
	// exit: decompress, materialize, shared-region allocation, policy
	// expansion, starting the child, or tracing it. Every other field
	// except SandboxEnabled is meaningless when Ran is false.
	Ran bool
	// ExitCode is the child's exit status when it exited normally. Valid
	// only when Signaled is false.
	ExitCode int
	// Signaled is true when the child was killed by a signal, which is
	// how a Layer A seccomp violation is observed by the parent.
	Signaled bool
	// Signal names the killing signal when Signaled is true.
	Signal string
	// SandboxEnabled records whether Layer A/Layer B were installed for
	// this invocation.
	SandboxEnabled bool
	// Message is a short, best-effort diagnostic string the child sent
	// back over its result descriptor (internal/resultfd) before a
	// pre-run failure. Empty on success or on a sandbox kill, since a
	// killed child never runs its own failure-reporting code.
	Message string
}
