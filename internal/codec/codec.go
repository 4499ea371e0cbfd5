// Package codec implements the fixed-algorithm buffer compress/decompress
// operation used to embed a compiled UDF artifact: a deflate-class payload
// followed by an 8-byte little-endian trailer carrying the uncompressed
// length. The trailer, not the decompressor, is authoritative for the size
// to allocate.
package codec

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/gridsynth/udfrun/internal/errs"
	"github.com/klauspost/compress/flate"
	"golang.org/x/xerrors"
)

// trailerLen is the width of the uncompressed-length trailer in bytes.
const trailerLen = 8

// Compress deflates src and appends an 8-byte little-endian trailer equal
// to len(src). It never truncates: errors from the underlying flate writer
// abort the call and return them wrapped in errs.Codec.
func Compress(src []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := flate.NewWriter(&buf, flate.DefaultCompression)
	if err != nil {
		return nil, errs.CodecError("compress", xerrors.Errorf("flate.NewWriter: %w", err))
	}
	if _, err := zw.Write(src); err != nil {
		return nil, errs.CodecError("compress", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errs.CodecError("compress", xerrors.Errorf("flush: %w", err))
	}

	out := buf.Bytes()
	trailer := make([]byte, trailerLen)
	binary.LittleEndian.PutUint64(trailer, uint64(len(src)))
	return append(out, trailer...), nil
}

// Decompress reads the trailing uncompressed-length field, allocates
// exactly that many bytes, and inflates blob's payload into them. It
// returns an errs.Codec error if the trailer is missing, the decompressed
// size mismatches, or the stream is corrupt or truncated.
func Decompress(blob []byte) ([]byte, error) {
	if len(blob) < trailerLen {
		return nil, errs.CodecError("decompress", xerrors.Errorf("blob too short (%d bytes) to hold trailer", len(blob)))
	}
	payload := blob[:len(blob)-trailerLen]
	trailer := blob[len(blob)-trailerLen:]
	wantLen := binary.LittleEndian.Uint64(trailer)

	zr := flate.NewReader(bytes.NewReader(payload))
	defer zr.Close()

	out := make([]byte, wantLen)
	n, err := io.ReadFull(zr, out)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return nil, errs.CodecError("decompress", err)
	}
	if uint64(n) != wantLen {
		return nil, errs.CodecError("decompress", xerrors.Errorf("got %d bytes, trailer promised %d", n, wantLen))
	}
	// Confirm the stream doesn't have leftover data beyond wantLen, which
	// would indicate the trailer under-reported the size.
	var extra [1]byte
	if m, _ := zr.Read(extra[:]); m > 0 {
		return nil, errs.CodecError("decompress", xerrors.Errorf("stream longer than trailer length %d", wantLen))
	}
	return out, nil
}
