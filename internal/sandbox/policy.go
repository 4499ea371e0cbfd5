// Package sandbox implements the two confinement layers installed in a
// UDF's child process: a kernel seccomp-BPF syscall allowlist (Layer A)
// and a ptrace-based path-validating interceptor run from the parent
// (Layer B). See doc.go for why Layer B is a parent-side tracer rather
// than an in-process shim.
package sandbox

import (
	"path/filepath"

	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/errs"
)

// DefaultResolvConf is the host's DNS resolver configuration path, always
// present in the default allowlist so DNS-resolving libc calls keep
// working inside the sandbox.
const DefaultResolvConf = "/etc/resolv.conf"

// Policy is a set of absolute path patterns: literal paths or shell-style
// globs. It is expanded once, at sandbox construction, into a flat list
// of permitted absolute paths compared by exact-string equality — no
// prefix or symlink interpretation.
type Policy struct {
	Patterns []string
}

// DefaultPolicy returns a Policy containing only the host's resolver
// configuration path.
func DefaultPolicy() Policy {
	return Policy{Patterns: []string{DefaultResolvConf}}
}

// Expand performs the one-time glob expansion: entries containing "*" are
// expanded via filesystem globbing (unsorted, in whatever order the glob
// implementation returns them); literal entries are kept verbatim.
func (p Policy) Expand() ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	for _, pattern := range p.Patterns {
		if !containsGlobMeta(pattern) {
			if !seen[pattern] {
				seen[pattern] = true
				out = append(out, pattern)
			}
			continue
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errs.SandboxError("expand policy", xerrors.Errorf("bad glob %q: %w", pattern, err))
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func containsGlobMeta(s string) bool {
	for _, r := range s {
		if r == '*' {
			return true
		}
	}
	return false
}
