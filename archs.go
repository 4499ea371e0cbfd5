package udfrun

import "runtime"

// HostABI identifies the ABI a compiled artifact targets: GOARCH-GOOS, e.g.
// "amd64-linux". A blob is assumed to target the host's ABI (spec
// non-goal: no cross-machine portability); nothing in this module
// consults HostABI when loading a blob, so no load is ever refused on
// its account.
func HostABI() string {
	return runtime.GOARCH + "-" + runtime.GOOS
}

// KnownArch reports whether arch is one this module has been built and
// tested for.
func KnownArch(arch string) bool {
	switch arch {
	case "amd64", "arm64":
		return true
	default:
		return false
	}
}
