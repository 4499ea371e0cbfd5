package compile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gridsynth/udfrun/internal/assemble"
)

// fakeCompiler writes a short shell script standing in for the system
// compiler: it ignores its flags and just copies a fixed payload to the
// -o path, optionally exiting non-zero to exercise the "exit status is
// advisory, output file is authoritative" rule.
func fakeCompiler(t *testing.T, exitCode int) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fakecc.sh")
	script := "#!/bin/sh\nout=\"\"\nwhile [ $# -gt 0 ]; do\n  if [ \"$1\" = \"-o\" ]; then shift; out=\"$1\"; fi\n  shift\ndone\nprintf 'fake shared object' > \"$out\"\nexit " +
		itoa(exitCode) + "\n"
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake compiler: %v", err)
	}
	return path
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string(rune('0'+n%10)) + s
		n /= 10
	}
	return s
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestCompileSuccess(t *testing.T) {
	dir := t.TempDir()
	udfSrc := writeFile(t, dir, "udf.cpp", "udf_data[0] = nullptr;")
	tmpl := writeFile(t, dir, "template.cpp", "void udf_run(void) {\n"+assemble.DefaultPlaceholder+"\n}\n")

	origCC := CC
	CC = fakeCompiler(t, 0)
	defer func() { CC = origCC }()

	res, err := Compile(context.Background(), udfSrc, tmpl, assemble.DefaultPlaceholder, ".cpp")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if len(res.Blob) == 0 {
		t.Fatal("Compile returned empty blob on success")
	}
	if !res.OutputFound {
		t.Fatal("OutputFound = false, want true")
	}
}

func TestCompileIgnoresNonZeroExitIfOutputExists(t *testing.T) {
	dir := t.TempDir()
	udfSrc := writeFile(t, dir, "udf.cpp", "udf_data[0] = nullptr;")
	tmpl := writeFile(t, dir, "template.cpp", "void udf_run(void) {\n"+assemble.DefaultPlaceholder+"\n}\n")

	origCC := CC
	CC = fakeCompiler(t, 1) // compiler "fails" but still writes output
	defer func() { CC = origCC }()

	res, err := Compile(context.Background(), udfSrc, tmpl, assemble.DefaultPlaceholder, ".cpp")
	if err != nil {
		t.Fatalf("Compile: %v, want success because output file exists", err)
	}
	if res.ExitStatus == 0 {
		t.Fatal("ExitStatus = 0, want the fake compiler's nonzero code to surface as diagnostic")
	}
	if len(res.Blob) == 0 {
		t.Fatal("Compile returned empty blob despite output file existing")
	}
}

func TestCompileFailsWithoutOutput(t *testing.T) {
	dir := t.TempDir()
	udfSrc := writeFile(t, dir, "udf.cpp", "udf_data[0] = nullptr;")
	tmpl := writeFile(t, dir, "template.cpp", "void udf_run(void) {\n"+assemble.DefaultPlaceholder+"\n}\n")

	origCC := CC
	CC = "/bin/false" // never produces an output file
	defer func() { CC = origCC }()

	res, err := Compile(context.Background(), udfSrc, tmpl, assemble.DefaultPlaceholder, ".cpp")
	if err == nil {
		t.Fatal("Compile succeeded despite no output file, want CompileError")
	}
	if res.OutputFound {
		t.Fatal("OutputFound = true, want false")
	}
	if len(res.Blob) != 0 {
		t.Fatal("Blob is non-empty on failure, want empty")
	}
}
