package sandbox

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
)

func TestExpandLiteralsKeptVerbatim(t *testing.T) {
	p := Policy{Patterns: []string{"/etc/resolv.conf", "/etc/hosts"}}
	got, err := p.Expand()
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	sort.Strings(got)
	want := []string{"/etc/hosts", "/etc/resolv.conf"}
	if len(got) != len(want) {
		t.Fatalf("Expand() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expand() = %v, want %v", got, want)
		}
	}
}

func TestExpandGlob(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.dat", "b.dat", "c.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatalf("setup: %v", err)
		}
	}
	p := Policy{Patterns: []string{filepath.Join(dir, "*.dat")}}
	got, err := p.Expand()
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	sort.Strings(got)
	want := []string{filepath.Join(dir, "a.dat"), filepath.Join(dir, "b.dat")}
	if len(got) != len(want) {
		t.Fatalf("Expand() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expand()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestDefaultPolicyContainsResolvConf(t *testing.T) {
	got, err := DefaultPolicy().Expand()
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	found := false
	for _, p := range got {
		if p == DefaultResolvConf {
			found = true
		}
	}
	if !found {
		t.Fatalf("DefaultPolicy().Expand() = %v, want it to contain %q", got, DefaultResolvConf)
	}
}
