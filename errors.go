// Package udfrun packs user-defined functions (UDFs) into compressed,
// embeddable shared-object blobs and, at read time, unpacks and executes
// them inside a restricted child process.
package udfrun

import "github.com/gridsynth/udfrun/internal/errs"

// Error is the common shape of every error the core raises. Use
// errors.As(err, &*Error) and compare Kind to discriminate.
type Error = errs.Error

// Kind discriminates the seven error categories the core raises.
type Kind = errs.Kind

const (
	KindCodec    = errs.Codec
	KindAssembly = errs.Assembly
	KindCompile  = errs.Compile
	KindLoad     = errs.Load
	KindMap      = errs.Map
	KindFork     = errs.Fork
	KindSandbox  = errs.Sandbox
)
