// Package assemble splices user-authored UDF source into a runtime
// template to produce one self-contained translation unit, ready for the
// compile driver. It also ships a default C++ template
// (internal/assemble/templates/default.cpp.tmpl) matching the ABI
// internal/rtabi expects, for callers that don't supply their own.
package assemble

import (
	"crypto/rand"
	"embed"
	"encoding/hex"
	"os"
	"strings"

	"github.com/google/renameio"
	"golang.org/x/xerrors"

	"github.com/gridsynth/udfrun/internal/errs"
)

//go:embed templates/default.cpp.tmpl
var defaultTemplateFS embed.FS

// DefaultPlaceholder is the token the default template splices UDF source
// into.
const DefaultPlaceholder = "//%%UDF_CODE%%"

// DefaultTemplate returns the contents of the bundled default C++
// template.
func DefaultTemplate() ([]byte, error) {
	return defaultTemplateFS.ReadFile("templates/default.cpp.tmpl")
}

// Assemble reads udfSourcePath and templatePath, splices the UDF text at
// the first occurrence of placeholder in the template, and writes the
// result to a freshly named temporary file with the given extension
// (e.g. ".cpp"). It returns the assembled file's path.
//
// Assembly fails with errs.Assembly if either file cannot be read or the
// placeholder does not occur exactly once in the template.
func Assemble(udfSourcePath, templatePath, placeholder, extension string) (string, error) {
	udfSrc, err := os.ReadFile(udfSourcePath)
	if err != nil {
		return "", errs.AssemblyError("read udf source", err)
	}
	tmpl, err := os.ReadFile(templatePath)
	if err != nil {
		return "", errs.AssemblyError("read template", err)
	}

	tmplStr := string(tmpl)
	idx := strings.Index(tmplStr, placeholder)
	if idx < 0 {
		return "", errs.AssemblyError("splice", xerrors.Errorf("placeholder %q not found in template %s", placeholder, templatePath))
	}
	if strings.Index(tmplStr[idx+len(placeholder):], placeholder) >= 0 {
		return "", errs.AssemblyError("splice", xerrors.Errorf("placeholder %q occurs more than once in template %s", placeholder, templatePath))
	}

	var out strings.Builder
	out.WriteString(tmplStr[:idx])
	out.Write(udfSrc)
	out.WriteString(tmplStr[idx+len(placeholder):])

	// The assembled path must be unique per call: concurrent packs must
	// never collide on the same on-disk name.
	assembledPath := udfSourcePath + "." + uniqueSuffix() + ".assembled" + extension

	tmp, err := renameio.TempFile("", assembledPath)
	if err != nil {
		return "", errs.AssemblyError("create temp file", err)
	}
	defer tmp.Cleanup()
	if _, err := tmp.Write([]byte(out.String())); err != nil {
		return "", errs.AssemblyError("write temp file", err)
	}
	if err := tmp.CloseAtomicallyReplace(); err != nil {
		return "", errs.AssemblyError("finalize temp file", err)
	}
	return assembledPath, nil
}

// uniqueSuffix returns a short random hex string, collision-free across
// concurrent packs of the same UDF source path.
func uniqueSuffix() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable system state;
		// fall back to a fixed marker rather than panicking so callers
		// can still fail cleanly downstream on a name collision.
		return "fallback"
	}
	return hex.EncodeToString(b[:])
}
