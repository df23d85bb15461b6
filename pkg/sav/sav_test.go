package sav

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"
)

// fileBuilder assembles a minimal but complete .sav/.zsav byte stream: the
// 176-byte header prelude followed by caller-supplied dictionary and row
// bytes, mirroring the builder helper internal/dict's own tests use for
// constructing dictionary records.
type fileBuilder struct {
	buf *bytes.Buffer
}

func newFileBuilder() *fileBuilder {
	return &fileBuilder{buf: &bytes.Buffer{}}
}

func (b *fileBuilder) i32(v int32) *fileBuilder {
	tmp := make([]byte, 4)
	binary.LittleEndian.PutUint32(tmp, uint32(v))
	b.buf.Write(tmp)
	return b
}

func (b *fileBuilder) f64(v float64) *fileBuilder {
	tmp := make([]byte, 8)
	binary.LittleEndian.PutUint64(tmp, math.Float64bits(v))
	b.buf.Write(tmp)
	return b
}

func (b *fileBuilder) raw(data []byte) *fileBuilder {
	b.buf.Write(data)
	return b
}

func (b *fileBuilder) fixed(s string, width int) *fileBuilder {
	buf := make([]byte, width)
	copy(buf, s)
	for i := len(s); i < width; i++ {
		buf[i] = ' '
	}
	b.buf.Write(buf)
	return b
}

func (b *fileBuilder) bytes() []byte { return b.buf.Bytes() }

// header writes the 176-byte prelude: little-endian layout_code 2,
// compressionCode as given, nCases rows declared.
func (b *fileBuilder) header(compressionCode int32, nCases int32) *fileBuilder {
	return b.headerWithMagic("$FL2", compressionCode, nCases)
}

// zsavHeader writes the 176-byte prelude with the ZSAV magic and zlib
// compression code, as required by header.Parse.
func (b *fileBuilder) zsavHeader(nCases int32) *fileBuilder {
	return b.headerWithMagic("$FL3", 2, nCases)
}

func (b *fileBuilder) headerWithMagic(magic string, compressionCode int32, nCases int32) *fileBuilder {
	b.raw([]byte(magic))
	b.fixed("@(#) SPSS DATA FILE", 60)
	b.i32(2) // layout_code, little-endian
	b.i32(0) // nominal_case_size, unused by this reader
	b.i32(compressionCode)
	b.i32(0) // weight_index
	b.i32(nCases)
	b.f64(100.0) // bias
	b.fixed("02 Aug 26", 9)
	b.fixed("12:00:00", 8)
	b.fixed("", 64)
	b.raw([]byte{0, 0, 0})
	return b
}

// numericVar writes one tag-2 numeric variable record with no label and
// no missing values.
func (b *fileBuilder) numericVar(name string) *fileBuilder {
	b.i32(2)
	b.i32(0) // raw_type: numeric
	b.i32(0) // has_label
	b.i32(0) // n_missing
	b.i32(5 << 16)
	b.i32(5 << 16)
	b.fixed(name, 8)
	return b
}

// shortStringVar writes one tag-2 string variable record of the given
// width (<=8, a single slot, no continuation needed).
func (b *fileBuilder) shortStringVar(name string, width int32) *fileBuilder {
	b.i32(2)
	b.i32(width)
	b.i32(0)
	b.i32(0)
	b.i32(0)
	b.i32(0)
	b.fixed(name, 8)
	return b
}

func (b *fileBuilder) terminator() *fileBuilder {
	b.i32(999)
	b.i32(0)
	return b
}

func TestReadSavFromReaderUncompressedNumeric(t *testing.T) {
	b := newFileBuilder().
		header(0, 2).
		numericVar("AGE").
		numericVar("SCORE").
		terminator().
		f64(30.0).f64(7.5). // row 1
		f64(40.0).f64(8.25) // row 2

	res, err := ReadSavFromReader(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("ReadSavFromReader() error = %v", err)
	}
	if res.Record.NumRows() != 2 || res.Record.NumCols() != 2 {
		t.Fatalf("record shape = %dx%d, want 2x2", res.Record.NumRows(), res.Record.NumCols())
	}
	if res.Metadata.VariableNames[0] != "AGE" || res.Metadata.VariableNames[1] != "SCORE" {
		t.Errorf("VariableNames = %v", res.Metadata.VariableNames)
	}
}

func TestReadMetadataFromReaderDoesNotRequireRowData(t *testing.T) {
	b := newFileBuilder().
		header(0, 1).
		numericVar("AGE").
		terminator()
	// no row bytes appended at all

	meta, err := ReadMetadataFromReader(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("ReadMetadataFromReader() error = %v", err)
	}
	if len(meta.VariableNames) != 1 || meta.VariableNames[0] != "AGE" {
		t.Errorf("VariableNames = %v, want [AGE]", meta.VariableNames)
	}
}

// A ZSAV file's block trailer sits at the end of the file and its blocks
// must be inflated to read rows. This builds a ZSAV prelude with no
// zheader/ztrailer/block bytes at all: if metadata reading ever touched
// the data section it would fail outright, since there is nothing there
// to read.
func TestReadMetadataFromReaderZsavNeverDecompresses(t *testing.T) {
	b := newFileBuilder().
		zsavHeader(1).
		numericVar("AGE").
		terminator()

	meta, err := ReadMetadataFromReader(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("ReadMetadataFromReader() error = %v", err)
	}
	if len(meta.VariableNames) != 1 || meta.VariableNames[0] != "AGE" {
		t.Errorf("VariableNames = %v, want [AGE]", meta.VariableNames)
	}
}

func TestOpenScannerBatchesAndProjectsColumns(t *testing.T) {
	b := newFileBuilder().
		header(0, 3).
		numericVar("A").
		numericVar("B").
		terminator().
		f64(1.0).f64(10.0).
		f64(2.0).f64(20.0).
		f64(3.0).f64(30.0)

	s, err := OpenScannerFromReader(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("OpenScannerFromReader() error = %v", err)
	}
	if err := s.SelectColumns([]string{"B"}); err != nil {
		t.Fatalf("SelectColumns() error = %v", err)
	}

	var totalRows int64
	for {
		rec, err := s.NextBatch(2)
		if err != nil {
			t.Fatalf("NextBatch() error = %v", err)
		}
		if rec == nil {
			break
		}
		if rec.NumCols() != 1 {
			t.Fatalf("NumCols = %d, want 1", rec.NumCols())
		}
		totalRows += rec.NumRows()
	}
	if totalRows != 3 {
		t.Errorf("totalRows = %d, want 3", totalRows)
	}
}

func TestReadSavFromReaderBytecodeCompressed(t *testing.T) {
	b := newFileBuilder().
		header(1, 2).
		numericVar("X").
		terminator()

	// bias 100.0: opcode 101 decodes to 1.0, opcode 102 to 2.0.
	b.raw([]byte{101, 102, 0, 0, 0, 0, 0, 0})

	res, err := ReadSavFromReader(bytes.NewReader(b.bytes()))
	if err != nil {
		t.Fatalf("ReadSavFromReader() error = %v", err)
	}
	if res.Record.NumRows() != 2 {
		t.Fatalf("NumRows = %d, want 2", res.Record.NumRows())
	}
}
