// Package loader opens a file-backed shared object and resolves named
// symbols from it. It loads with RTLD_GLOBAL so that a symbol the runtime
// template declares (the four runtime tables) is visible for the UDF's own
// translation unit to reference, matching the dynamic-linking relationship
// between template and UDF that assembly splices together at compile time.
package loader

import (
	"github.com/ebitengine/purego"

	"github.com/gridsynth/udfrun/internal/errs"
)

// Handle is an opened shared object.
type Handle struct {
	h uintptr
}

// Open loads the shared object at path.
func Open(path string) (*Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, errs.LoadError("open", err)
	}
	return &Handle{h: h}, nil
}

// Symbol resolves name in the loaded object. A missing symbol is not an
// error here: it returns (0, false) so the executor can decide whether a
// missing runtime-table symbol or entry point is fatal.
func (h *Handle) Symbol(name string) (addr uintptr, ok bool) {
	a, err := purego.Dlsym(h.h, name)
	if err != nil || a == 0 {
		return 0, false
	}
	return a, true
}

// Close unloads the shared object.
func (h *Handle) Close() error {
	if err := purego.Dlclose(h.h); err != nil {
		return errs.LoadError("close", err)
	}
	return nil
}
