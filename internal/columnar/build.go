package columnar

import (
	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/cyw0ng95/savreader/internal/rowio"
)

// buildColumn builds one column's full array from the row-major buffers.
// Never touches any other column's state, which is what makes the
// parallel path in parallel.go safe.
func buildColumn(mem memory.Allocator, dt arrow.DataType, rows []*rowio.Row, col int) arrow.Array {
	if dt.ID() == arrow.STRING {
		b := array.NewStringBuilder(mem)
		defer b.Release()
		for _, row := range rows {
			if row.Nulls[col] {
				b.AppendNull()
			} else {
				b.Append(row.Values[col].Str)
			}
		}
		return b.NewStringArray()
	}

	b := array.NewFloat64Builder(mem)
	defer b.Release()
	for _, row := range rows {
		if row.Nulls[col] {
			b.AppendNull()
		} else {
			b.Append(row.Values[col].Num)
		}
	}
	return b.NewFloat64Array()
}
