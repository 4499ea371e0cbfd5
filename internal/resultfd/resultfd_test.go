package resultfd

import (
	"os"
	"testing"
)

func TestWriteReadRoundTrip(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	Write(int(w.Fd()), "loader: missing symbol udf_run")

	got := Read(int(r.Fd()))
	if got != "loader: missing symbol udf_run" {
		t.Fatalf("Read() = %q, want %q", got, "loader: missing symbol udf_run")
	}
}

func TestReadEmptyWhenNothingWritten(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	w.Close() // simulates a child that exited without calling Write
	defer r.Close()

	if got := Read(int(r.Fd())); got != "" {
		t.Fatalf("Read() = %q, want empty string", got)
	}
}

func TestWriteTruncatesLongMessages(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()

	long := make([]byte, maxMessage+64)
	for i := range long {
		long[i] = 'x'
	}
	Write(int(w.Fd()), string(long))

	got := Read(int(r.Fd()))
	if len(got) != maxMessage {
		t.Fatalf("Read() returned %d bytes, want %d", len(got), maxMessage)
	}
}
