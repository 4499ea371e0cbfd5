package executor

import (
	"os"
	"testing"
)

func TestRunChildFailsClosedOnMissingConfig(t *testing.T) {
	t.Setenv(childEnvKey, "")
	os.Unsetenv(childEnvKey)
	if code := runChild(); code != 1 {
		t.Fatalf("runChild() with no config = %d, want 1", code)
	}
}

func TestRunChildFailsClosedOnMalformedConfig(t *testing.T) {
	t.Setenv(childEnvKey, "{not valid json")
	if code := runChild(); code != 1 {
		t.Fatalf("runChild() with malformed config = %d, want 1", code)
	}
}

func TestRunChildFailsClosedOnMissingSO(t *testing.T) {
	cfg := &childConfig{SOPath: "/nonexistent/path/does-not-exist.so", DiagFDIndex: -1}
	s, err := cfg.marshal()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	t.Setenv(childEnvKey, s)
	if code := runChild(); code != 1 {
		t.Fatalf("runChild() with missing .so = %d, want 1", code)
	}
}
