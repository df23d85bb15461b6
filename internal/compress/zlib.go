package compress

import (
	"bytes"
	"compress/zlib"
	"io"

	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

// ZHeader is the 24-byte ZSAV envelope immediately following the
// dictionary terminator.
type ZHeader struct {
	ZHeaderOffset  int64
	ZTrailerOffset int64
	ZTrailerLength int64
}

// ZTrailerEntry describes one zlib-compressed block.
type ZTrailerEntry struct {
	UncompressedOffset int64
	CompressedOffset   int64
	UncompressedSize   uint32
	CompressedSize     uint32
}

// ZTrailer is the block table at ZHeader.ZTrailerOffset. Bias/Zero/
// BlockSize are carried for round-trip fidelity; only Entries drives
// decompression.
type ZTrailer struct {
	Bias      int64
	Zero      int64
	BlockSize int32
	NBlocks   int32
	Entries   []ZTrailerEntry
}

// ReadZHeader reads the 24-byte zheader that opens the ZSAV data section.
func ReadZHeader(r *header.ByteReader) (*ZHeader, error) {
	a, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	b, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	c, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	return &ZHeader{ZHeaderOffset: a, ZTrailerOffset: b, ZTrailerLength: c}, nil
}

// ReadZTrailer seeks to zh.ZTrailerOffset and reads the block table.
func ReadZTrailer(r *header.ByteReader, zh *ZHeader) (*ZTrailer, error) {
	if err := r.SeekAbsolute(zh.ZTrailerOffset); err != nil {
		return nil, err
	}

	bias, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	zero, err := r.ReadI64()
	if err != nil {
		return nil, err
	}
	blockSize, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	nBlocks, err := r.ReadI32()
	if err != nil {
		return nil, err
	}

	entries := make([]ZTrailerEntry, 0, nBlocks)
	for i := int32(0); i < nBlocks; i++ {
		uOfs, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		cOfs, err := r.ReadI64()
		if err != nil {
			return nil, err
		}
		uSize, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		cSize, err := r.ReadU32()
		if err != nil {
			return nil, err
		}
		entries = append(entries, ZTrailerEntry{
			UncompressedOffset: uOfs,
			CompressedOffset:   cOfs,
			UncompressedSize:   uSize,
			CompressedSize:     cSize,
		})
	}

	return &ZTrailer{Bias: bias, Zero: zero, BlockSize: blockSize, NBlocks: nBlocks, Entries: entries}, nil
}

// DecompressBlocks seeks to and inflates every block in trailer, in order,
// concatenating the inflated bytes into one virtual stream. That stream is
// bytecode-compressed data (ZSAV always layers zlib over bytecode) and is
// meant to be fed to a BytecodeDecompressor.
func DecompressBlocks(r *header.ByteReader, trailer *ZTrailer) (io.Reader, error) {
	var out bytes.Buffer
	for _, entry := range trailer.Entries {
		if err := r.SeekAbsolute(entry.CompressedOffset); err != nil {
			return nil, err
		}
		compressed, err := r.ReadBytes(int(entry.CompressedSize))
		if err != nil {
			return nil, err
		}

		zr, err := zlib.NewReader(bytes.NewReader(compressed))
		if err != nil {
			return nil, model.Wrap(model.ErrProtocol, err, "invalid zlib block")
		}
		n, err := io.Copy(&out, zr)
		zr.Close()
		if err != nil {
			return nil, model.Wrap(model.ErrProtocol, err, "zlib block inflation failed")
		}
		if uint32(n) != entry.UncompressedSize {
			return nil, model.Errorf(model.ErrProtocol,
				"zlib block inflated to %d bytes, trailer declared %d", n, entry.UncompressedSize)
		}
	}
	return &out, nil
}
