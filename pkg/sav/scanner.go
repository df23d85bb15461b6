package sav

import (
	"io"
	"os"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/cyw0ng95/savreader/internal/columnar"
	"github.com/cyw0ng95/savreader/internal/model"
	"github.com/cyw0ng95/savreader/internal/rowio"
)

// Scanner streams a file's rows in bounded batches rather than holding
// every decoded row in memory at once (a ZSAV file's inflated block
// stream is still held in memory in full), mirroring rowio.Scanner one
// layer up: each NextBatch call returns one Arrow RecordBatch instead of
// a row-major rowio.Batch.
type Scanner struct {
	scanner     *rowio.Scanner
	schema      *arrow.Schema
	fieldByName map[string]arrow.Field
	Metadata    *model.Metadata

	closeFn func() error
}

// OpenScanner opens the file at path for streaming reads.
func OpenScanner(path string) (*Scanner, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, model.Wrap(model.ErrIO, err, "opening "+path)
	}
	s, err := newScanner(f, f.Close)
	if err != nil {
		f.Close()
		return nil, err
	}
	return s, nil
}

// OpenScannerFromReader is OpenScanner over an already-open reader. A
// seekable reader is required because ZSAV's block trailer lives at the
// end of the file.
func OpenScannerFromReader(r io.ReadSeeker) (*Scanner, error) {
	return newScanner(r, nil)
}

func newScanner(r io.ReadSeeker, closeFn func() error) (*Scanner, error) {
	p, err := open(r, nil)
	if err != nil {
		return nil, err
	}
	src, err := p.rowSource()
	if err != nil {
		return nil, err
	}
	rs := rowio.NewScanner(src, p.res.All, p.res.Visible, p.h.BigEndian, p.res.Decoder, int(p.h.NCases))
	schema := columnar.BuildSchema(p.res.Metadata)
	byName := make(map[string]arrow.Field, len(schema.Fields()))
	for _, f := range schema.Fields() {
		byName[f.Name] = f
	}
	return &Scanner{
		scanner:     rs,
		schema:      schema,
		fieldByName: byName,
		Metadata:    p.res.Metadata,
		closeFn:     closeFn,
	}, nil
}

// SelectColumns restricts subsequent batches to the named columns, in the
// order given. Passing nil or an empty slice restores full projection.
func (s *Scanner) SelectColumns(names []string) error {
	return s.scanner.SelectColumns(names)
}

// SetRowLimit bounds the total number of rows ever produced across all
// calls to NextBatch. 0 means unbounded.
func (s *Scanner) SetRowLimit(n int) {
	s.scanner.SetRowLimit(n)
}

// NextBatch reads up to batchSize rows and returns them as one Arrow
// RecordBatch, projected to the current column selection. It returns
// (nil, nil) once the scanner is exhausted.
func (s *Scanner) NextBatch(batchSize int) (arrow.Record, error) {
	batch, err := s.scanner.NextBatch(batchSize)
	if err != nil {
		return nil, err
	}
	if batch == nil {
		return nil, nil
	}
	schema := s.schema
	projected := len(batch.Columns) != len(s.schema.Fields())
	for i := 0; !projected && i < len(batch.Columns); i++ {
		projected = batch.Columns[i] != s.schema.Field(i).Name
	}
	if projected {
		fields := make([]arrow.Field, len(batch.Columns))
		for i, name := range batch.Columns {
			fields[i] = s.fieldByName[name]
		}
		schema = arrow.NewSchema(fields, nil)
	}
	return columnar.BuildRecord(memory.NewGoAllocator(), schema, batch.Rows, len(batch.Rows) >= 1000)
}

// Close releases the underlying file, if the scanner opened one itself.
func (s *Scanner) Close() error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn()
}
