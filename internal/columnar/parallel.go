package columnar

import (
	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	"golang.org/x/sync/errgroup"

	"github.com/cyw0ng95/savreader/internal/rowio"
)

// parallelThreshold is the row count below which fanning column builds out
// across goroutines would cost more in scheduling overhead than it saves;
// below it BuildRecord always takes the serial path regardless of the
// parallel flag.
const parallelThreshold = 1000

// BuildRecord transposes row-major rows into an Arrow RecordBatch matching
// schema's column order. When parallel is true and there is more than one
// column and enough rows to make fan-out worthwhile, each column is built
// by its own goroutine, joined with errgroup exactly as crazy-max-undock
// fans out independent per-item build work; the result is identical either
// way, since columns never share state.
func BuildRecord(mem memory.Allocator, schema *arrow.Schema, rows []*rowio.Row, parallel bool) (arrow.Record, error) {
	numCols := len(schema.Fields())
	columns := make([]arrow.Array, numCols)

	if parallel && numCols > 1 && len(rows) >= parallelThreshold {
		var g errgroup.Group
		for c := 0; c < numCols; c++ {
			c := c
			g.Go(func() error {
				columns[c] = buildColumn(mem, schema.Field(c).Type, rows, c)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for c := 0; c < numCols; c++ {
			columns[c] = buildColumn(mem, schema.Field(c).Type, rows, c)
		}
	}

	rec := array.NewRecord(schema, columns, int64(len(rows)))
	for _, col := range columns {
		col.Release()
	}
	return rec, nil
}
