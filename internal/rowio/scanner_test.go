package rowio

import (
	"bytes"
	"testing"

	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

func threeNumericRows(t *testing.T, values []float64) *Scanner {
	t.Helper()
	a := testVar("A", model.NumericType())
	b := testVar("B", model.NumericType())
	vars := []*model.Variable{a, b}
	visible := []*model.Variable{a, b}

	var buf bytes.Buffer
	for _, v := range values {
		bytesA := f64le(v)
		bytesB := f64le(v * 10)
		buf.Write(bytesA[:])
		buf.Write(bytesB[:])
	}

	src := NewRawSlotSource(header.NewByteReader(bytes.NewReader(buf.Bytes())))
	return NewScanner(src, vars, visible, false, nil, -1)
}

func TestScannerBatchesRows(t *testing.T) {
	sc := threeNumericRows(t, []float64{1, 2, 3})

	batch1, err := sc.NextBatch(2)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if len(batch1.Rows) != 2 {
		t.Fatalf("batch1 rows = %d, want 2", len(batch1.Rows))
	}
	if batch1.Rows[0].Values[0].Num != 1 || batch1.Rows[1].Values[0].Num != 2 {
		t.Errorf("batch1 A values = %v, %v, want 1, 2", batch1.Rows[0].Values[0].Num, batch1.Rows[1].Values[0].Num)
	}

	batch2, err := sc.NextBatch(2)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if len(batch2.Rows) != 1 || batch2.Rows[0].Values[0].Num != 3 {
		t.Fatalf("batch2 = %+v, want one row with A=3", batch2.Rows)
	}

	batch3, err := sc.NextBatch(2)
	if err != nil {
		t.Fatalf("NextBatch() at EOF error = %v", err)
	}
	if batch3 != nil {
		t.Errorf("expected nil batch at EOF, got %v", batch3)
	}
}

func TestScannerRowLimit(t *testing.T) {
	sc := threeNumericRows(t, []float64{1, 2, 3})
	sc.SetRowLimit(2)

	batch, err := sc.NextBatch(10)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if len(batch.Rows) != 2 {
		t.Fatalf("rows = %d, want 2 (row limit)", len(batch.Rows))
	}

	next, err := sc.NextBatch(10)
	if err != nil {
		t.Fatalf("NextBatch() after limit error = %v", err)
	}
	if next != nil {
		t.Errorf("expected nil batch after row limit reached, got %v", next)
	}
}

func TestScannerSelectColumns(t *testing.T) {
	sc := threeNumericRows(t, []float64{1, 2, 3})
	if err := sc.SelectColumns([]string{"B"}); err != nil {
		t.Fatalf("SelectColumns() error = %v", err)
	}

	batch, err := sc.NextBatch(10)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}
	if len(batch.Columns) != 1 || batch.Columns[0] != "B" {
		t.Fatalf("Columns = %v, want [B]", batch.Columns)
	}
	if batch.Rows[0].Values[0].Num != 10 {
		t.Errorf("row0 B = %v, want 10", batch.Rows[0].Values[0].Num)
	}
}

func TestScannerSelectUnknownColumn(t *testing.T) {
	sc := threeNumericRows(t, []float64{1})
	err := sc.SelectColumns([]string{"NOPE"})
	if err == nil {
		t.Fatal("expected an error for an unknown column name")
	}
	if model.CodeOf(err) != model.ErrUnknownVariable {
		t.Errorf("error code = %v, want ErrUnknownVariable", model.CodeOf(err))
	}
}

func TestScannerDeclaredRowCountMismatch(t *testing.T) {
	a := testVar("A", model.NumericType())
	vars := []*model.Variable{a}
	visible := []*model.Variable{a}

	av := f64le(1.0)
	src := NewRawSlotSource(header.NewByteReader(bytes.NewReader(av[:])))
	sc := NewScanner(src, vars, visible, false, nil, 5)

	_, err := sc.NextBatch(10)
	if err == nil {
		t.Fatal("expected an error when the stream ends before the declared row count")
	}
	if model.CodeOf(err) != model.ErrUnexpectedEOF {
		t.Errorf("error code = %v, want ErrUnexpectedEOF", model.CodeOf(err))
	}
}
