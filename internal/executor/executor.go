// Package executor implements the run-time orchestrator: decompress a
// packed UDF blob, materialize it to disk, map a shared region per
// dataset, run the UDF in a re-exec'd child process, and copy the result
// back out. Since Go cannot safely fork() a running process, "fork" is
// implemented as a re-exec: this package re-execs os.Args[0] with a
// hidden verb and hands the child its working set (shared-memory file
// descriptors, dataset metadata, the materialized .so path) across the
// exec boundary instead of inheriting a copied address space. See
// internal/shm's package doc for the full rationale.
package executor

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"os"
	"os/exec"
	"runtime"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/codec"
	"github.com/gridsynth/udfrun/internal/dataset"
	"github.com/gridsynth/udfrun/internal/errs"
	"github.com/gridsynth/udfrun/internal/resultfd"
	"github.com/gridsynth/udfrun/internal/sandbox"
	"github.com/gridsynth/udfrun/internal/shm"
)

// Options bundles one Run call's inputs.
type Options struct {
	// Policy is the expanded sandbox policy for this invocation
	// (internal/policy.Load resolves a host file reference into one).
	// A zero-value Policy expands to an empty allowlist, so Layer B
	// denies every path-bearing call it inspects; Sandbox controls
	// whether either layer runs at all.
	Policy sandbox.Policy
	// Sandbox enables both sandbox layers in the child when true. This
	// is a per-call option rather than a build-time switch, since there
	// is no separate build variant of this package.
	Sandbox bool
	// Inputs are the ordered input dataset descriptors (indices 1..N of
	// the runtime tables).
	Inputs []*dataset.Descriptor
	// Output is the pre-allocated output descriptor (index 0). Its Data
	// buffer is overwritten with the result on return.
	Output *dataset.Descriptor
	// Blob is the embedded, compressed UDF artifact.
	Blob []byte
	// OutputCast names an intended post-hoc reinterpretation of the
	// output buffer. It is accepted and threaded through for a future
	// decision but not currently applied to the output buffer.
	OutputCast string
}

// Run executes one UDF invocation end to end. It returns true unless the
// parent fails before it can observe the child's exit (decompress,
// materialize, region allocation, policy expansion, starting the child,
// or tracing it); in that case it returns false with the error and the
// output buffer is left unmodified. A crashed or sandbox-killed child is
// not fatal to the parent, and the (possibly zero-filled) shared region
// is copied out regardless. Diagnostics surfaces the child's exit details
// alongside that true/false result without changing it.
func Run(ctx context.Context, opts Options) (ok bool, diag Diagnostics, err error) {
	// IDLE -> UNPACKED
	soBytes, err := codec.Decompress(opts.Blob)
	if err != nil {
		return false, Diagnostics{}, err
	}

	// UNPACKED -> MATERIALIZED
	soPath, cleanupSO, err := materialize(soBytes)
	if err != nil {
		return false, Diagnostics{}, err
	}
	defer cleanupSO()

	// MATERIALIZED -> MAPPED
	regions, cfgDatasets, cleanupRegions, err := mapRegions(opts.Output, opts.Inputs)
	if err != nil {
		return false, Diagnostics{}, err
	}
	defer cleanupRegions()

	// internal/resultfd carries a short diagnostic string back from the
	// child on a pre-run failure, independent of and in addition to the
	// wait status.
	diagR, diagW, err := os.Pipe()
	if err != nil {
		return false, Diagnostics{}, errs.ForkError("create diagnostic pipe", err)
	}
	defer diagR.Close()

	cfg := &childConfig{
		SOPath:         soPath,
		Datasets:       cfgDatasets,
		SandboxEnabled: opts.Sandbox,
		DiagFDIndex:    len(regions),
	}
	cfgStr, err := cfg.marshal()
	if err != nil {
		diagW.Close()
		return false, Diagnostics{}, err
	}

	extraFiles := make([]*os.File, len(regions)+1)
	for i, r := range regions {
		extraFiles[i] = os.NewFile(uintptr(r.FD()), "udfrun-region")
	}
	extraFiles[len(regions)] = diagW

	cmd := exec.CommandContext(ctx, os.Args[0], ChildVerb)
	cmd.ExtraFiles = extraFiles
	cmd.Env = append(os.Environ(), childEnvKey+"="+cfgStr)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stderr // a UDF's stray writes to its inherited stdout would corrupt the host's data stream
	cmd.Stderr = os.Stderr

	// MAPPED -> FORKED
	ws, runErr := runChildProcess(cmd, diagW, opts)
	if runErr != nil {
		// A parent-side failure: the policy could not be expanded, the
		// child could not be started, or Layer B failed while tracing
		// it. The caller's output buffer is left unmodified.
		return false, Diagnostics{SandboxEnabled: opts.Sandbox}, runErr
	}
	diag = Diagnostics{Ran: true, SandboxEnabled: opts.Sandbox}
	if ws.Signaled() {
		diag.Signaled = true
		diag.Signal = ws.Signal().String()
	} else {
		diag.ExitCode = ws.ExitStatus()
	}
	// Safe to read only now: the child has exited and the parent's copy
	// of the write end is closed, so Read sees EOF instead of blocking.
	diag.Message = resultfd.Read(int(diagR.Fd()))

	// FORKED -> JOINED -> COPIED
	room := opts.Output.BufferLen()
	copy(opts.Output.Data, regions[0].Bytes()[:room])

	// COPIED -> CLEANED -> IDLE (region/so cleanup via deferred funcs)
	return true, diag, nil
}

// materialize writes the already decompressed shared-object bytes to a
// uniquely named, executable file on disk, as the loader requires a
// file-backed shared object. The returned
// cleanup unlinks it; the caller must defer it immediately.
func materialize(soBytes []byte) (path string, cleanup func(), err error) {
	soPath, err := uniquePath("udfrun-artifact", ".so")
	if err != nil {
		return "", nil, errs.MapError("materialize", err)
	}
	// The loader must never see a partially written file; renameio
	// writes to a temp name in the same directory and renames into
	// place atomically, same as internal/assemble uses it for the
	// spliced UDF source.
	if err := renameio.WriteFile(soPath, soBytes, 0o755); err != nil {
		return "", nil, errs.MapError("materialize", err)
	}
	return soPath, func() { os.Remove(soPath) }, nil
}

// mapRegions allocates one shared region per dataset slot (output first,
// then inputs in caller order), copying each input's data into its
// region so the child can read it across the exec boundary. The
// returned cleanup destroys every region and closes its descriptor; the
// caller must defer it immediately.
func mapRegions(output *dataset.Descriptor, inputs []*dataset.Descriptor) ([]*shm.Region, []childDataset, func(), error) {
	all := append([]*dataset.Descriptor{output}, inputs...)
	regions := make([]*shm.Region, len(all))
	cfgDatasets := make([]childDataset, len(all))

	cleanup := func() {
		for _, r := range regions {
			if r != nil {
				r.Close()
			}
		}
	}

	for i, d := range all {
		size := d.BufferLen()
		if size == 0 {
			size = 1 // memfd requires a positive length even for a zero-grid dataset
		}
		r, err := shm.Create(size)
		if err != nil {
			cleanup()
			return nil, nil, func() {}, err
		}
		regions[i] = r
		if i > 0 { // inputs only; the output region starts zero-filled
			copy(r.Bytes(), d.Data)
		}
		cfgDatasets[i] = childDataset{
			Name:     d.Name,
			DType:    string(d.DType),
			Dims:     d.Dims,
			ElemSize: d.ElemSize,
			FDIndex:  i,
			Size:     size,
		}
	}
	return regions, cfgDatasets, cleanup, nil
}

// uniquePath builds a temp-directory path with a random hex suffix,
// collision-free across concurrent runs, matching the compile driver's
// own unique-naming discipline (internal/assemble.uniqueSuffix).
func uniquePath(prefix, ext string) (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", xerrors.Errorf("generate unique name: %w", err)
	}
	return os.TempDir() + string(os.PathSeparator) + prefix + "-" + hex.EncodeToString(b[:]) + ext, nil
}

// runChildProcess starts cmd and waits for it to finish, optionally
// tracing it for Layer B. Both ptrace attachment and the corresponding
// wait must happen on the same locked OS thread, since ptrace state is
// per-thread kernel state, not per-process.
func runChildProcess(cmd *exec.Cmd, diagW *os.File, opts Options) (waitStatus, error) {
	if !opts.Sandbox {
		if err := cmd.Start(); err != nil {
			diagW.Close()
			return waitStatus{}, errs.ForkError("start", err)
		}
		diagW.Close() // the parent's copy must close so diagR sees EOF once the child's does
		err := cmd.Wait()
		return waitStatusFromCmdErr(cmd, err), nil
	}

	expanded, err := opts.Policy.Expand()
	if err != nil {
		diagW.Close()
		return waitStatus{}, errs.SandboxError("expand policy", err)
	}

	type result struct {
		ws  waitStatus
		err error
	}
	done := make(chan result, 1)
	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		setPtrace(cmd)
		if err := cmd.Start(); err != nil {
			diagW.Close()
			done <- result{err: errs.ForkError("start", err)}
			return
		}
		diagW.Close()
		tracer := sandbox.NewTracer(expanded)
		ws, err := tracer.Run(cmd.Process.Pid)
		if err != nil {
			done <- result{err: err}
			return
		}
		done <- result{ws: ws}
	}()
	r := <-done
	return r.ws, r.err
}
