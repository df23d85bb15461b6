package header

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/cyw0ng95/savreader/internal/model"
)

func buildHeader(order binary.ByteOrder, magic string, compressionCode int32) []byte {
	buf := &bytes.Buffer{}
	buf.WriteString(magic)
	buf.Write(make([]byte, 60)) // product

	put32 := func(v int32) {
		b := make([]byte, 4)
		order.PutUint32(b, uint32(v))
		buf.Write(b)
	}
	put32(2) // layout_code
	put32(2) // nominal_case_size
	put32(compressionCode)
	put32(0) // weight_index
	put32(3) // n_cases

	biasBytes := make([]byte, 8)
	binary.LittleEndian.PutUint64(biasBytes, math.Float64bits(100.0))
	buf.Write(biasBytes)

	buf.Write(make([]byte, 9))  // date
	buf.Write(make([]byte, 8))  // time
	buf.Write(make([]byte, 64)) // label
	buf.Write(make([]byte, 3))  // padding
	return buf.Bytes()
}

func TestParseLittleEndian(t *testing.T) {
	raw := buildHeader(binary.LittleEndian, "$FL2", 0)
	h, err := Parse(NewByteReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if h.BigEndian {
		t.Errorf("expected little-endian header")
	}
	if h.Bias != 100.0 {
		t.Errorf("Bias = %v, want 100.0", h.Bias)
	}
	if h.NCases != 3 {
		t.Errorf("NCases = %d, want 3", h.NCases)
	}
}

func TestParseBigEndianTwin(t *testing.T) {
	raw := buildHeader(binary.BigEndian, "$FL2", 0)
	h, err := Parse(NewByteReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !h.BigEndian {
		t.Errorf("expected big-endian header")
	}
	// Bias is always little-endian on disk regardless of header endianness.
	if h.Bias != 100.0 {
		t.Errorf("Bias = %v, want 100.0", h.Bias)
	}
	if h.NCases != 3 {
		t.Errorf("NCases = %d, want 3", h.NCases)
	}
}

func TestParseBadMagic(t *testing.T) {
	raw := buildHeader(binary.LittleEndian, "XXXX", 0)
	_, err := Parse(NewByteReader(bytes.NewReader(raw)))
	if model.CodeOf(err) != model.ErrBadMagic {
		t.Fatalf("expected ErrBadMagic, got %v", err)
	}
}

func TestParseUnsupportedCompression(t *testing.T) {
	raw := buildHeader(binary.LittleEndian, "$FL2", 9)
	_, err := Parse(NewByteReader(bytes.NewReader(raw)))
	if model.CodeOf(err) != model.ErrUnsupportedCompression {
		t.Fatalf("expected ErrUnsupportedCompression, got %v", err)
	}
}

func TestZsavRequiresFL3Magic(t *testing.T) {
	raw := buildHeader(binary.LittleEndian, "$FL2", 2)
	_, err := Parse(NewByteReader(bytes.NewReader(raw)))
	if model.CodeOf(err) != model.ErrProtocol {
		t.Fatalf("expected ErrProtocol for zlib compression with sav magic, got %v", err)
	}
}
