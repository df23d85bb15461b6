// Package sav is the public facade: opening a .sav/.zsav file and getting
// back either its metadata alone, a streaming row scanner, or (for callers
// who want everything at once) a single Arrow RecordBatch plus metadata.
// It wires together header, dict, resolve, compress, rowio and columnar
// behind a small set of entry points.
package sav

import (
	"io"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/cyw0ng95/savreader/internal/columnar"
	"github.com/cyw0ng95/savreader/internal/compress"
	"github.com/cyw0ng95/savreader/internal/dict"
	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
	"github.com/cyw0ng95/savreader/internal/obslog"
	"github.com/cyw0ng95/savreader/internal/resolve"
	"github.com/cyw0ng95/savreader/internal/rowio"
)

// Result is the eager, whole-file read: one Arrow RecordBatch plus the
// metadata describing it.
type Result struct {
	Record   arrow.Record
	Metadata *model.Metadata
}

// slotSource mirrors rowio's own unexported interface of the same shape;
// any *compress.BytecodeDecompressor or rowio raw-source value the
// pipeline builds satisfies it structurally, with no import needed.
type slotSource interface {
	Next() (compress.Slot, error)
}

// pipeline is what every entry point shares: parse the header, dispatch
// the dictionary, and resolve it. The data-section slot source is built
// lazily on first row access, so a metadata-only call never inflates a
// ZSAV file's compressed blocks.
type pipeline struct {
	h      *header.Header
	res    *resolve.Result
	r      io.ReadSeeker
	br     *header.ByteReader
	logger *obslog.Logger

	src slotSource
}

func open(r io.ReadSeeker, logger *obslog.Logger) (*pipeline, error) {
	if logger == nil {
		logger = obslog.Default()
	}
	br := header.NewByteReader(r)
	h, err := header.Parse(br)
	if err != nil {
		return nil, err
	}
	d, err := dict.Dispatch(br, logger)
	if err != nil {
		return nil, err
	}
	res, err := resolve.Resolve(h, d)
	if err != nil {
		return nil, err
	}

	return &pipeline{h: h, res: res, r: r, br: br, logger: logger}, nil
}

// rowSource builds and memoizes the data-section slot source. For a ZSAV
// file this is the point where its compressed blocks are actually
// inflated; callers that only need metadata never reach it.
func (p *pipeline) rowSource() (slotSource, error) {
	if p.src != nil {
		return p.src, nil
	}

	var src slotSource
	switch p.h.Compression {
	case model.CompressionNone:
		src = rowio.NewRawSlotSource(p.br)
	case model.CompressionBytecode:
		src = compress.NewBytecodeDecompressor(p.r, p.h.Bias)
	case model.CompressionZlib:
		zh, err := compress.ReadZHeader(p.br)
		if err != nil {
			return nil, err
		}
		trailer, err := compress.ReadZTrailer(p.br, zh)
		if err != nil {
			return nil, err
		}
		inflated, err := compress.DecompressBlocks(p.br, trailer)
		if err != nil {
			return nil, err
		}
		src = compress.NewBytecodeDecompressor(inflated, p.h.Bias)
	default:
		return nil, model.Errorf(model.ErrUnsupportedCompression, "unhandled compression scheme %d", p.h.Compression)
	}

	p.src = src
	return src, nil
}

func openPath(path string) (*pipeline, func() error, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, model.Wrap(model.ErrIO, err, "opening "+path)
	}
	p, err := open(f, nil)
	if err != nil {
		f.Close()
		return nil, nil, err
	}
	return p, f.Close, nil
}

// ReadMetadata parses the header and dictionary of the file at path and
// returns the resolved metadata, without reading any row data.
func ReadMetadata(path string) (*model.Metadata, error) {
	p, closeFn, err := openPath(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return p.res.Metadata, nil
}

// ReadMetadataFromReader is ReadMetadata over an already-open reader. A
// seekable reader is required because ZSAV's block trailer lives at the
// end of the file, though metadata alone never reads it.
func ReadMetadataFromReader(r io.ReadSeeker) (*model.Metadata, error) {
	p, err := open(r, nil)
	if err != nil {
		return nil, err
	}
	return p.res.Metadata, nil
}

// ReadSav reads the whole file at path eagerly and returns a single Arrow
// RecordBatch alongside its metadata.
func ReadSav(path string) (*Result, error) {
	p, closeFn, err := openPath(path)
	if err != nil {
		return nil, err
	}
	defer closeFn()
	return readAll(p)
}

// ReadSavFromReader is ReadSav over an already-open reader. A seekable
// reader is required because ZSAV's block trailer lives at the end of
// the file.
func ReadSavFromReader(r io.ReadSeeker) (*Result, error) {
	p, err := open(r, nil)
	if err != nil {
		return nil, err
	}
	return readAll(p)
}

func readAll(p *pipeline) (*Result, error) {
	src, err := p.rowSource()
	if err != nil {
		return nil, err
	}
	scanner := rowio.NewScanner(src, p.res.All, p.res.Visible, p.h.BigEndian, p.res.Decoder, int(p.h.NCases))

	var rows []*rowio.Row
	for {
		batch, err := scanner.NextBatch(4096)
		if err != nil {
			return nil, err
		}
		if batch == nil {
			break
		}
		rows = append(rows, batch.Rows...)
	}

	schema := columnar.BuildSchema(p.res.Metadata)
	rec, err := columnar.BuildRecord(memory.NewGoAllocator(), schema, rows, len(rows) >= 1000)
	if err != nil {
		return nil, err
	}
	return &Result{Record: rec, Metadata: p.res.Metadata}, nil
}
