package policy

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingSidecarYieldsDefault(t *testing.T) {
	dir := t.TempDir()
	host := filepath.Join(dir, "archive.h5")
	p, err := Load(host)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(p.Patterns) != 1 || p.Patterns[0] != "/etc/resolv.conf" {
		t.Fatalf("Load() = %+v, want default policy", p)
	}
}

func TestLoadSidecarParsesPatternsAndComments(t *testing.T) {
	dir := t.TempDir()
	host := filepath.Join(dir, "archive.h5")
	sidecar := host + SidecarExtension
	contents := "# allow inputs\n/data/inputs/*.bin\n\n/etc/resolv.conf\n  # trailing comment\n"
	if err := os.WriteFile(sidecar, []byte(contents), 0o644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	p, err := Load(host)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []string{"/data/inputs/*.bin", "/etc/resolv.conf"}
	if len(p.Patterns) != len(want) {
		t.Fatalf("Load().Patterns = %v, want %v", p.Patterns, want)
	}
	for i := range want {
		if p.Patterns[i] != want[i] {
			t.Fatalf("Load().Patterns[%d] = %q, want %q", i, p.Patterns[i], want[i])
		}
	}
}
