package columnar

import (
	"testing"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/memory"

	"github.com/cyw0ng95/savreader/internal/model"
	"github.com/cyw0ng95/savreader/internal/rowio"
)

func testSchema() *arrow.Schema {
	return arrow.NewSchema([]arrow.Field{
		{Name: "A", Type: arrow.PrimitiveTypes.Float64, Nullable: true},
		{Name: "NAME", Type: arrow.BinaryTypes.String, Nullable: true},
	}, nil)
}

func TestBuildSchemaFromMetadata(t *testing.T) {
	vars := model.NewOrderedMap[*model.VariableMeta]()
	vars.Set("AGE", &model.VariableMeta{OutputType: model.OutputFloat64})
	vars.Set("NAME", &model.VariableMeta{OutputType: model.OutputString})
	meta := &model.Metadata{
		VariableNames: []string{"AGE", "NAME"},
		Variables:     vars,
	}

	schema := BuildSchema(meta)
	if schema.NumFields() != 2 {
		t.Fatalf("NumFields() = %d, want 2", schema.NumFields())
	}
	if schema.Field(0).Type.ID() != arrow.FLOAT64 {
		t.Errorf("field 0 type = %v, want Float64", schema.Field(0).Type)
	}
	if schema.Field(1).Type.ID() != arrow.STRING {
		t.Errorf("field 1 type = %v, want Utf8", schema.Field(1).Type)
	}
}

func TestBuildRecordWithNulls(t *testing.T) {
	schema := testSchema()
	mem := memory.NewGoAllocator()

	rows := []*rowio.Row{
		{Values: []model.Value{model.NumericValue(1), model.StringVal("alice")}, Nulls: []bool{false, false}},
		{Values: []model.Value{model.NumericValue(0), model.StringVal("")}, Nulls: []bool{true, true}},
	}

	rec, err := BuildRecord(mem, schema, rows, false)
	if err != nil {
		t.Fatalf("BuildRecord() error = %v", err)
	}
	defer rec.Release()

	if rec.NumRows() != 2 {
		t.Fatalf("NumRows() = %d, want 2", rec.NumRows())
	}
	if rec.Column(0).IsNull(1) != true {
		t.Error("row 1 column A should be null")
	}
	if rec.Column(1).IsNull(0) {
		t.Error("row 0 column NAME should not be null")
	}
}

func TestBuildRecordSerialAndParallelAgree(t *testing.T) {
	schema := testSchema()
	mem := memory.NewGoAllocator()

	rows := make([]*rowio.Row, 0, 1500)
	for i := 0; i < 1500; i++ {
		null := i%7 == 0
		rows = append(rows, &rowio.Row{
			Values: []model.Value{model.NumericValue(float64(i)), model.StringVal("row")},
			Nulls:  []bool{null, false},
		})
	}

	serial, err := BuildRecord(mem, schema, rows, false)
	if err != nil {
		t.Fatalf("serial BuildRecord() error = %v", err)
	}
	defer serial.Release()

	parallel, err := BuildRecord(mem, schema, rows, true)
	if err != nil {
		t.Fatalf("parallel BuildRecord() error = %v", err)
	}
	defer parallel.Release()

	if !serial.Equal(parallel) {
		t.Error("parallel build disagrees with serial build")
	}
}
