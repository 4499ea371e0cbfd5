package udfrun

import (
	"context"

	"github.com/gridsynth/udfrun/internal/executor"
)

// Diagnostics surfaces the UDF child's raw exit status alongside Run's
// boolean result.
type Diagnostics = executor.Diagnostics

// ChildVerb is the hidden argv[1] value a re-exec'd child process
// recognizes. A CLI front-end embedding this package must check
// os.Args[1] == udfrun.ChildVerb before its normal command dispatch and
// call RunChild instead, since Run works by re-executing os.Args[0]
// rather than a true fork (see internal/shm's package doc for why).
const ChildVerb = executor.ChildVerb

// RunChild is the hidden child-side entry point a re-exec'd process
// must call. It never returns.
func RunChild() { executor.RunChild() }

// RunOptions bundles one Run call's inputs.
type RunOptions struct {
	// Policy is the expanded sandbox policy for this invocation.
	Policy Policy
	// Sandbox enables both sandbox layers in the child.
	Sandbox bool
	// Inputs are the ordered input dataset descriptors.
	Inputs []*Dataset
	// Output is the pre-allocated output descriptor; its Data buffer is
	// overwritten with the result on return.
	Output *Dataset
	// Blob is the embedded, compressed UDF artifact.
	Blob []byte
	// OutputCast is accepted but not currently applied to the output
	// buffer.
	OutputCast string
}

// Run unpacks blob, loads it into a sandboxed child process wired to
// inputs and output via a shared memory region, and invokes the UDF. It
// returns true unless the blob could never be turned into a runnable
// child; a crashed or sandbox-killed UDF still yields true with a
// zero-filled output.
func Run(ctx context.Context, opts RunOptions) (bool, Diagnostics, error) {
	return executor.Run(ctx, executor.Options{
		Policy:     opts.Policy,
		Sandbox:    opts.Sandbox,
		Inputs:     opts.Inputs,
		Output:     opts.Output,
		Blob:       opts.Blob,
		OutputCast: opts.OutputCast,
	})
}
