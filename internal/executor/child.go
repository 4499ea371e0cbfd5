package executor

import (
	"os"
	"runtime"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/gridsynth/udfrun/internal/loader"
	"github.com/gridsynth/udfrun/internal/resultfd"
	"github.com/gridsynth/udfrun/internal/rtabi"
	"github.com/gridsynth/udfrun/internal/sandbox"
	"github.com/gridsynth/udfrun/internal/shm"
)

// RunChild is the hidden child-side entry point: a CLI front-end must
// call this instead of its normal dispatch when os.Args[1] == ChildVerb.
// It never returns; it terminates the process directly via os.Exit so
// that no at-exit handler registered by the hosting process (the parent
// it was exec'd from) runs inside the child — this is a freshly exec'd
// process, and any cleanup state the parent registered belongs to the
// parent alone.
func RunChild() {
	os.Exit(runChild())
}

// runChild does the real work and returns the process exit code, so
// tests can exercise the logic without a live os.Exit.
func runChild() int {
	cfg, err := unmarshalChildConfig(os.Getenv(childEnvKey))
	if err != nil {
		// No diagnostic fd to report through yet: the config itself,
		// which would have named it, never parsed.
		return 1
	}
	diagFD := -1
	if cfg.DiagFDIndex >= 0 {
		diagFD = 3 + cfg.DiagFDIndex
	}
	fail := func(msg string) int {
		resultfd.Write(diagFD, msg)
		return 1
	}

	regions := make([]*shm.Region, len(cfg.Datasets))
	for i, ds := range cfg.Datasets {
		fd := 3 + ds.FDIndex // os/exec maps ExtraFiles[i] to fd 3+i in the child
		r, err := shm.Map(fd, ds.Size)
		if err != nil {
			return fail("map region " + ds.Name + ": " + err.Error())
		}
		regions[i] = r
	}

	h, err := loader.Open(cfg.SOPath)
	if err != nil {
		return fail("open: " + err.Error())
	}
	defer h.Close()

	tables, err := rtabi.Resolve(h)
	if err != nil {
		return fail("resolve symbols: " + err.Error())
	}

	var pinner runtime.Pinner
	defer pinner.Unpin()

	tables.SetCount(int32(len(cfg.Datasets)))
	for i, ds := range cfg.Datasets {
		data := regions[i].Bytes()
		var dataPtr unsafe.Pointer
		if len(data) > 0 {
			dataPtr = unsafe.Pointer(&data[0])
			pinner.Pin(&data[0])
		}
		tables.SetData(i, dataPtr)

		nameC := append([]byte(ds.Name), 0)
		pinner.Pin(&nameC[0])
		tables.SetName(i, unsafe.Pointer(&nameC[0]))

		dtypeC := append([]byte(ds.DType), 0)
		pinner.Pin(&dtypeC[0])
		tables.SetDType(i, unsafe.Pointer(&dtypeC[0]))

		if err := tables.SetDims(i, ds.Dims); err != nil {
			return fail("set dims for " + ds.Name + ": " + err.Error())
		}
	}

	if cfg.SandboxEnabled {
		if ok := sandbox.InstallChildSide(); !ok {
			return fail("sandbox install failed")
		}
	}

	var entry func()
	purego.RegisterFunc(&entry, tables.Entry)
	entry()

	return 0
}
