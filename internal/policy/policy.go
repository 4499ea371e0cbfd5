// Package policy resolves the opaque sandbox policy reference the
// host-core run interface accepts into a concrete internal/sandbox.Policy.
// This module backs that reference with a per-host-file sidecar
// allowlist, since some concrete format has to exist for Run to be
// callable end to end.
package policy

import (
	"errors"
	"os"
	"strings"

	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/sandbox"
)

// SidecarExtension names the allowlist file next to the host file a
// policy reference identifies: "/data/archive.h5" looks up
// "/data/archive.h5.udfpolicy".
const SidecarExtension = ".udfpolicy"

// Load resolves hostFilePath's sidecar allowlist: one path-or-glob
// pattern per line, blank lines and lines beginning with "#" ignored. A
// missing sidecar is not an error; it yields sandbox.DefaultPolicy(), so
// a host file with no sidecar still sandboxes to the DNS-resolver-only
// default rather than failing closed in a surprising way.
func Load(hostFilePath string) (sandbox.Policy, error) {
	data, err := os.ReadFile(hostFilePath + SidecarExtension)
	if errors.Is(err, os.ErrNotExist) {
		return sandbox.DefaultPolicy(), nil
	}
	if err != nil {
		return sandbox.Policy{}, xerrors.Errorf("policy: read sidecar for %s: %w", hostFilePath, err)
	}

	var patterns []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, line)
	}
	return sandbox.Policy{Patterns: patterns}, nil
}
