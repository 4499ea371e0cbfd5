package udfrun

import (
	"github.com/gridsynth/udfrun/internal/policy"
	"github.com/gridsynth/udfrun/internal/sandbox"
)

// Policy is a sandbox policy: a set of absolute path patterns (literal
// paths or shell-style globs) expanded once into a flat allowlist.
type Policy = sandbox.Policy

// DefaultPolicy returns the policy admitting only the host's DNS
// resolver configuration path.
func DefaultPolicy() Policy { return sandbox.DefaultPolicy() }

// LoadPolicy resolves a sandbox policy reference (an opaque path
// identifying a host file) by reading its sidecar allowlist. A host
// file with no sidecar resolves to DefaultPolicy.
func LoadPolicy(hostFilePath string) (Policy, error) {
	return policy.Load(hostFilePath)
}
