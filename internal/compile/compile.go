// Package compile drives the system compiler: it assembles a UDF's source
// with its template, invokes the compiler as a subprocess to produce a
// position-independent shared object, and packs the result into a
// compressed blob.
package compile

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"

	"golang.org/x/exp/mmap"
	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/assemble"
	"github.com/gridsynth/udfrun/internal/codec"
	"github.com/gridsynth/udfrun/internal/errs"
)

// CC names the system compiler invoked for assembled UDF sources. It can
// be overridden (e.g. in tests) by setting the CXX environment variable,
// respecting the host toolchain's own override convention.
var CC = "c++"

func init() {
	if cxx := os.Getenv("CXX"); cxx != "" {
		CC = cxx
	}
}

// Result carries the packed blob plus diagnostic information worth
// preserving even though it does not affect success: the compiler's
// advisory exit status is not authoritative (presence of the output
// file is), but callers may want it for logs.
type Result struct {
	Blob        []byte
	ExitStatus  int
	Stderr      string
	OutputFound bool
}

// Compile assembles udfSourcePath+templatePath, invokes CC to build a
// shared object with LTO and size optimization, and returns the
// compressed blob. The compiler's exit status is advisory only: presence
// of the `<assembled>.so` output file is authoritative.
func Compile(ctx context.Context, udfSourcePath, templatePath, placeholder, extension string) (*Result, error) {
	assembledPath, err := assemble.Assemble(udfSourcePath, templatePath, placeholder, extension)
	if err != nil {
		return nil, err
	}
	soPath := assembledPath + ".so"

	cmd := exec.CommandContext(ctx, CC,
		"-shared", "-fPIC",
		"-flto", "-Os",
		"-o", soPath,
		assembledPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	runErr := cmd.Run()

	// The compiler's stderr is passed through unchanged; this driver does
	// not parse diagnostics, it only captures them for the Result.
	os.Stderr.Write(stderr.Bytes())

	_, statErr := os.Stat(soPath)
	outputFound := statErr == nil

	res := &Result{
		Stderr:      stderr.String(),
		OutputFound: outputFound,
	}
	if exitErr, ok := asExitError(runErr); ok {
		res.ExitStatus = exitErr.ExitCode()
	}

	if !outputFound {
		os.Remove(assembledPath)
		return res, errs.CompileError("compile", xerrors.Errorf("no shared object produced at %s", soPath))
	}

	soBytes, err := readWholeFile(soPath)
	if err != nil {
		os.Remove(soPath)
		os.Remove(assembledPath)
		return res, errs.CompileError("read output", err)
	}
	os.Remove(soPath)
	os.Remove(assembledPath)

	blob, err := codec.Compress(soBytes)
	if err != nil {
		return res, err
	}
	res.Blob = blob
	return res, nil
}

func asExitError(err error) (*exec.ExitError, bool) {
	ee, ok := err.(*exec.ExitError)
	return ee, ok
}

// readWholeFile maps path read-only and copies its full contents into a
// newly allocated heap buffer, which is what it returns for the codec.
func readWholeFile(path string) ([]byte, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	buf := make([]byte, r.Len())
	if _, err := r.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
