// Package scan extracts the set of input dataset names a UDF refers to,
// by running the UDF source through the compiler's preprocessor and
// pattern-matching its output. It is an advisory API: since the
// preprocessor run can fail for many benign reasons (missing headers the
// embedding step doesn't care about, a UDF that never referenced
// lib.getData), a failure to spawn the compiler yields an empty list
// rather than an error.
package scan

import (
	"bytes"
	"context"
	"os/exec"
	"regexp"

	"github.com/gridsynth/udfrun/internal/compile"
)

// callToken is the literal token sequence identifying the data-access API.
const callToken = "lib.getData"

// lineCallPattern matches the first double-quoted string literal following a
// lib.getData occurrence on the same line.
var lineCallPattern = regexp.MustCompile(`lib\.getData[^\n"]*"([^"]*)"`)

// Scan runs the system compiler in preprocessor mode on udfSourcePath and
// returns, in source order (duplicates preserved), the dataset name
// argument of every lib.getData occurrence. It never evaluates macro
// semantics beyond what the preprocessor already emitted.
//
// If the compiler cannot be spawned, Scan returns an empty, non-nil slice
// and a nil error: dataset-reference scanning is advisory, and the
// embedding step may proceed without it.
func Scan(ctx context.Context, udfSourcePath string) ([]string, error) {
	cmd := exec.CommandContext(ctx, compile.CC, "-E", udfSourcePath)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return []string{}, nil
	}
	return extract(stdout.Bytes()), nil
}

// extract pulls dataset names out of preprocessed source text.
func extract(preprocessed []byte) []string {
	var names []string
	for _, line := range bytes.Split(preprocessed, []byte("\n")) {
		if !bytes.Contains(line, []byte(callToken)) {
			continue
		}
		for _, m := range lineCallPattern.FindAllSubmatch(line, -1) {
			names = append(names, string(m[1]))
		}
	}
	if names == nil {
		names = []string{}
	}
	return names
}
