// Package header implements the endian-aware byte reader and the 176-byte
// header prelude: the two primitives every later dictionary and
// row-reading stage builds on.
package header

import (
	"encoding/binary"
	"io"
	"math"

	"github.com/cyw0ng95/savreader/internal/model"
)

// ByteReader wraps any io.Reader and applies a persistent endianness flag to
// every multi-byte read. Single-byte reads bypass the flag entirely. No
// alignment is assumed: fields are read individually and assembled, so the
// underlying stream may be arbitrarily misaligned.
type ByteReader struct {
	r         io.Reader
	bigEndian bool
	pos       int64
}

// NewByteReader wraps r. Endianness defaults to little-endian; call
// SetBigEndian once the header's layout_code has been decoded.
func NewByteReader(r io.Reader) *ByteReader {
	return &ByteReader{r: r}
}

// SetBigEndian switches the decoding order used by subsequent multi-byte
// reads.
func (b *ByteReader) SetBigEndian(big bool) {
	b.bigEndian = big
}

// BigEndian reports the reader's current byte order.
func (b *ByteReader) BigEndian() bool {
	return b.bigEndian
}

// Pos returns the number of bytes consumed so far.
func (b *ByteReader) Pos() int64 {
	return b.pos
}

// SeekAbsolute repositions the reader to an absolute byte offset. The
// underlying source must implement io.Seeker; this is required only for
// jumping to a ZSAV block trailer, never for the sequential read path.
func (b *ByteReader) SeekAbsolute(offset int64) error {
	seeker, ok := b.r.(io.Seeker)
	if !ok {
		return model.Errorf(model.ErrIO, "underlying reader does not support seeking")
	}
	if _, err := seeker.Seek(offset, io.SeekStart); err != nil {
		return model.Wrap(model.ErrIO, err, "seek failed")
	}
	b.pos = offset
	return nil
}

func (b *ByteReader) order() binary.ByteOrder {
	if b.bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// ReadBytes reads exactly n bytes, failing with UnexpectedEof if the stream
// ends first.
func (b *ByteReader) ReadBytes(n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(b.r, buf); err != nil {
		return nil, wrapEOF(err).AtOffset(b.pos)
	}
	b.pos += int64(n)
	return buf, nil
}

// TryReadBytes reads exactly n bytes like ReadBytes, except a clean
// end-of-stream with zero bytes consumed is reported as ok==false instead
// of an error. Used at row boundaries, where "no more data" and "the file
// is truncated mid-record" must be told apart.
func (b *ByteReader) TryReadBytes(n int) (buf []byte, ok bool, err error) {
	buf = make([]byte, n)
	read, err := io.ReadFull(b.r, buf)
	if err != nil {
		if err == io.EOF && read == 0 {
			return nil, false, nil
		}
		return nil, false, wrapEOF(err).AtOffset(b.pos)
	}
	b.pos += int64(n)
	return buf, true, nil
}

// Skip discards n bytes.
func (b *ByteReader) Skip(n int) error {
	_, err := b.ReadBytes(n)
	return err
}

// ReadByte reads a single byte; it is never byte-swapped.
func (b *ByteReader) ReadByte() (byte, error) {
	buf, err := b.ReadBytes(1)
	if err != nil {
		return 0, err
	}
	return buf[0], nil
}

// ReadI32 reads one signed 32-bit integer in the reader's current byte order.
func (b *ByteReader) ReadI32() (int32, error) {
	buf, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return int32(b.order().Uint32(buf)), nil
}

// ReadU32 reads one unsigned 32-bit integer in the reader's current byte order.
func (b *ByteReader) ReadU32() (uint32, error) {
	buf, err := b.ReadBytes(4)
	if err != nil {
		return 0, err
	}
	return b.order().Uint32(buf), nil
}

// ReadI64 reads one signed 64-bit integer in the reader's current byte order.
func (b *ByteReader) ReadI64() (int64, error) {
	buf, err := b.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return int64(b.order().Uint64(buf)), nil
}

// ReadF64 reads one IEEE-754 double in the reader's current byte order.
func (b *ByteReader) ReadF64() (float64, error) {
	buf, err := b.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(b.order().Uint64(buf)), nil
}

// ReadF64LE reads one IEEE-754 double that is always little-endian on disk
// regardless of the reader's selected byte order (the header's bias field is
// the one documented exception).
func (b *ByteReader) ReadF64LE() (float64, error) {
	buf, err := b.ReadBytes(8)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf)), nil
}

func wrapEOF(err error) *model.Error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return model.Wrap(model.ErrUnexpectedEOF, err, "unexpected end of stream")
	}
	return model.Wrap(model.ErrIO, err, "read failed")
}
