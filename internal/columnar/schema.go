// Package columnar builds the Arrow schema and RecordBatch from the
// resolved metadata and the row-major buffers the row reader produces. This
// is the only stage of the reader allowed to run in parallel: one goroutine
// per column, each independent, with a serial fallback that must be
// bit-identical.
package columnar

import (
	"github.com/apache/arrow/go/v18/arrow"

	"github.com/cyw0ng95/savreader/internal/model"
)

// BuildSchema converts resolved variable metadata into an Arrow schema,
// column order matching the visible-variable declaration order: Float64
// for numeric variables, Utf8 for string ones, every field nullable
// (SYSMIS surfaces as an Arrow null; user-missing values stay as values).
func BuildSchema(meta *model.Metadata) *arrow.Schema {
	fields := make([]arrow.Field, len(meta.VariableNames))
	for i, name := range meta.VariableNames {
		vm, _ := meta.Variables.Get(name)
		dt := arrow.DataType(arrow.PrimitiveTypes.Float64)
		if vm != nil && vm.OutputType == model.OutputString {
			dt = arrow.BinaryTypes.String
		}
		fields[i] = arrow.Field{Name: name, Type: dt, Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}
