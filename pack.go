package udfrun

import (
	"context"
	"log"

	"github.com/gridsynth/udfrun/internal/assemble"
	"github.com/gridsynth/udfrun/internal/compile"
	"github.com/gridsynth/udfrun/internal/depgraph"
	"github.com/gridsynth/udfrun/internal/scan"
)

// DefaultPlaceholder is the token the bundled default template splices
// UDF source into.
const DefaultPlaceholder = assemble.DefaultPlaceholder

// DefaultTemplate returns the contents of the bundled default runtime
// template.
func DefaultTemplate() ([]byte, error) { return assemble.DefaultTemplate() }

// PackDiagnostics surfaces the compiler's advisory exit status and
// stderr alongside Pack's boolean/blob result, without changing the
// documented empty-blob-means-failure contract.
type PackDiagnostics struct {
	ExitStatus  int
	Stderr      string
	OutputFound bool
}

// Pack assembles udfSourcePath with templatePath, compiles it to a
// position-independent shared object, and returns the compressed,
// embeddable blob. A nil blob means failure; this function has already
// emitted a single diagnostic line to stderr before returning.
func Pack(ctx context.Context, udfSourcePath, templatePath, placeholder, extension string) ([]byte, PackDiagnostics, error) {
	res, err := compile.Compile(ctx, udfSourcePath, templatePath, placeholder, extension)
	var diag PackDiagnostics
	if res != nil {
		diag = PackDiagnostics{ExitStatus: res.ExitStatus, Stderr: res.Stderr, OutputFound: res.OutputFound}
	}
	if err != nil {
		log.Printf("udfrun: pack %s: %v", udfSourcePath, err)
		return nil, diag, err
	}
	return res.Blob, diag, nil
}

// Scan extracts the ordered (duplicates preserved) list of dataset names
// udfSourcePath references via the data-access API. A compiler that
// cannot be spawned yields an empty, non-nil slice: the scan is
// advisory.
func Scan(ctx context.Context, udfSourcePath string) ([]string, error) {
	return scan.Scan(ctx, udfSourcePath)
}

// DatasetDependency names one UDF's produced virtual dataset and the
// dataset names it was scanned as depending on.
type DatasetDependency = depgraph.UDF

// CheckDatasetCycles validates that a set of UDFs' declared dataset
// dependencies (as scan() reports them) contains no cycle, before any of
// them are packed.
func CheckDatasetCycles(deps []DatasetDependency) error {
	return depgraph.CheckAcyclic(deps)
}
