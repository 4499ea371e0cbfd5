package assemble

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gridsynth/udfrun/internal/errs"
)

func writeFile(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestAssembleSplicesAtPlaceholder(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "tmpl.cpp", "before\n//%%UDF_CODE%%\nafter\n")
	src := writeFile(t, dir, "udf.cpp", "int udf_body() { return 1; }")

	path, err := Assemble(src, tmpl, DefaultPlaceholder, ".cpp")
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	defer os.Remove(path)

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read assembled file: %v", err)
	}
	want := "before\nint udf_body() { return 1; }\nafter\n"
	if string(got) != want {
		t.Fatalf("assembled contents = %q, want %q", got, want)
	}
	if !strings.HasSuffix(path, ".assembled.cpp") {
		t.Fatalf("assembled path %q does not end in .assembled.cpp", path)
	}
}

func TestAssembleMissingPlaceholder(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "tmpl.cpp", "no placeholder here\n")
	src := writeFile(t, dir, "udf.cpp", "int udf_body() { return 1; }")

	_, err := Assemble(src, tmpl, DefaultPlaceholder, ".cpp")
	if err == nil {
		t.Fatal("Assemble with no placeholder succeeded, want error")
	}
	assertKind(t, err, errs.Assembly)
}

func TestAssembleDuplicatePlaceholder(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "tmpl.cpp", "//%%UDF_CODE%%\n//%%UDF_CODE%%\n")
	src := writeFile(t, dir, "udf.cpp", "int udf_body() { return 1; }")

	_, err := Assemble(src, tmpl, DefaultPlaceholder, ".cpp")
	if err == nil {
		t.Fatal("Assemble with duplicate placeholder succeeded, want error")
	}
	assertKind(t, err, errs.Assembly)
}

func TestAssembleUnreadableSource(t *testing.T) {
	dir := t.TempDir()
	tmpl := writeFile(t, dir, "tmpl.cpp", "//%%UDF_CODE%%\n")

	_, err := Assemble(filepath.Join(dir, "does-not-exist.cpp"), tmpl, DefaultPlaceholder, ".cpp")
	if err == nil {
		t.Fatal("Assemble with unreadable source succeeded, want error")
	}
	assertKind(t, err, errs.Assembly)
}

func TestAssembleUnreadableTemplate(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "udf.cpp", "int udf_body() { return 1; }")

	_, err := Assemble(src, filepath.Join(dir, "does-not-exist.cpp"), DefaultPlaceholder, ".cpp")
	if err == nil {
		t.Fatal("Assemble with unreadable template succeeded, want error")
	}
	assertKind(t, err, errs.Assembly)
}

func assertKind(t *testing.T, err error, want errs.Kind) {
	t.Helper()
	var e *errs.Error
	for u := err; u != nil; {
		if as, ok := u.(*errs.Error); ok {
			e = as
			break
		}
		unwrapper, ok := u.(interface{ Unwrap() error })
		if !ok {
			break
		}
		u = unwrapper.Unwrap()
	}
	if e == nil {
		t.Fatalf("error %v does not wrap an *errs.Error", err)
	}
	if e.Kind != want {
		t.Fatalf("error kind = %v, want %v", e.Kind, want)
	}
}
