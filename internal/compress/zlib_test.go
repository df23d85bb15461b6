package compress

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"io"
	"testing"

	"github.com/cyw0ng95/savreader/internal/header"
)

func compressBlock(t *testing.T, data []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := zlib.NewWriter(buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("zlib write error: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("zlib close error: %v", err)
	}
	return buf.Bytes()
}

func TestZsavBlockRoundTrip(t *testing.T) {
	payload := []byte{101, 102, 103, 0, 0, 0, 0, 0}
	compressed := compressBlock(t, payload)

	buf := &bytes.Buffer{}
	buf.Write(make([]byte, 40)) // leading filler before the compressed block

	compressedOffset := int64(buf.Len())
	buf.Write(compressed)

	trailerOffset := int64(buf.Len())
	writeI64 := func(v int64) {
		tmp := make([]byte, 8)
		binary.LittleEndian.PutUint64(tmp, uint64(v))
		buf.Write(tmp)
	}
	writeI32 := func(v int32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	writeU32 := func(v uint32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, v)
		buf.Write(tmp)
	}

	writeI64(100)        // trailer.bias
	writeI64(0)           // trailer.zero
	writeI32(int32(len(payload))) // block_size
	writeI32(1)           // n_blocks
	writeI64(0)           // entry.uncompressed_offset
	writeI64(compressedOffset)
	writeU32(uint32(len(payload)))
	writeU32(uint32(len(compressed)))

	r := header.NewByteReader(bytes.NewReader(buf.Bytes()))

	zh := &ZHeader{ZTrailerOffset: trailerOffset}
	trailer, err := ReadZTrailer(r, zh)
	if err != nil {
		t.Fatalf("ReadZTrailer() error = %v", err)
	}
	if len(trailer.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(trailer.Entries))
	}

	stream, err := DecompressBlocks(r, trailer)
	if err != nil {
		t.Fatalf("DecompressBlocks() error = %v", err)
	}
	got, err := io.ReadAll(stream)
	if err != nil {
		t.Fatalf("io.ReadAll() error = %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("got %v, want %v", got, payload)
	}
}
