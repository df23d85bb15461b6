package sav

import (
	"io"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/ipc"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/cyw0ng95/savreader/internal/model"
)

// WriteIPC re-serializes rec in the Arrow IPC file format to w. This is
// not a SAV/ZSAV writer — it round-trips this reader's own Arrow output
// for callers who want to hand a batch to another process without
// re-reading the original file.
func WriteIPC(w io.Writer, rec arrow.Record) error {
	writer, err := ipc.NewFileWriter(w, ipc.WithSchema(rec.Schema()))
	if err != nil {
		return model.Wrap(model.ErrIO, err, "opening IPC writer")
	}
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return model.Wrap(model.ErrIO, err, "writing IPC record")
	}
	return writer.Close()
}

// ReadIPC reads back a single Arrow RecordBatch previously written by
// WriteIPC. Multi-batch IPC files are not a use case this reader
// produces, so only the first record is returned.
func ReadIPC(r ipc.ReadAtSeeker) (arrow.Record, error) {
	fr, err := ipc.NewFileReader(r, ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, model.Wrap(model.ErrIO, err, "opening IPC reader")
	}
	defer fr.Close()

	if fr.NumRecords() == 0 {
		return nil, model.Errorf(model.ErrProtocol, "IPC file contains no record batches")
	}
	rec, err := fr.Record(0)
	if err != nil {
		return nil, model.Wrap(model.ErrIO, err, "reading IPC record")
	}
	rec.Retain()
	return rec, nil
}
