package codec

import (
	"bytes"
	"strings"
	"testing"
)

func TestRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		in   []byte
	}{
		{name: "single byte", in: []byte{0x42}},
		{name: "short text", in: []byte("hello, UDF")},
		{name: "binary-ish", in: []byte{0x00, 0xff, 0x10, 0x00, 0x00, 0x7f}},
		{name: "large repetitive", in: bytes.Repeat([]byte("abcdefgh"), 1<<16)},
		{name: "large seven-byte pattern", in: []byte(strings.Repeat("\x01\x02\x03\x04\x05\x06\x07", 1<<15))},
	} {
		t.Run(tt.name, func(t *testing.T) {
			blob, err := Compress(tt.in)
			if err != nil {
				t.Fatalf("Compress: %v", err)
			}
			got, err := Decompress(blob)
			if err != nil {
				t.Fatalf("Decompress: %v", err)
			}
			if !bytes.Equal(got, tt.in) {
				t.Fatalf("round trip mismatch: got %d bytes, want %d bytes", len(got), len(tt.in))
			}
		})
	}
}

func TestTrailerIsAuthoritative(t *testing.T) {
	blob, err := Compress([]byte("0123456789"))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	got, err := Decompress(blob)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if len(got) != 10 {
		t.Fatalf("len(got) = %d, want 10", len(got))
	}
}

func TestDecompressTooShort(t *testing.T) {
	if _, err := Decompress([]byte{1, 2, 3}); err == nil {
		t.Fatal("Decompress of a too-short blob succeeded, want error")
	}
}

func TestDecompressCorrupt(t *testing.T) {
	blob, err := Compress([]byte("some udf payload"))
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	// Corrupt a byte in the compressed payload while leaving the trailer
	// intact.
	blob[0] ^= 0xff
	if _, err := Decompress(blob); err == nil {
		t.Fatal("Decompress of corrupted payload succeeded, want error")
	}
}
