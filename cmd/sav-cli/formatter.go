package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
)

// Formatter renders one Arrow RecordBatch at a time in one of four
// output modes: an aligned table, CSV, JSON, or a one-field-per-line
// list.
type Formatter struct {
	mode        string
	showHeaders bool
	nullValue   string
}

func NewFormatter(mode string) *Formatter {
	return &Formatter{mode: mode, showHeaders: true, nullValue: "NULL"}
}

func (f *Formatter) Format(rec arrow.Record) string {
	if rec == nil || rec.NumCols() == 0 {
		return ""
	}
	switch f.mode {
	case "csv":
		return f.formatCSV(rec)
	case "json":
		return f.formatJSON(rec)
	case "list":
		return f.formatList(rec)
	default:
		return f.formatTable(rec)
	}
}

func (f *Formatter) columnNames(rec arrow.Record) []string {
	names := make([]string, rec.NumCols())
	for i := range names {
		names[i] = rec.ColumnName(i)
	}
	return names
}

func (f *Formatter) formatTable(rec arrow.Record) string {
	var sb strings.Builder
	cols := f.columnNames(rec)
	widths := make([]int, len(cols))
	for i, c := range cols {
		widths[i] = len(c)
	}
	nRows := int(rec.NumRows())
	for r := 0; r < nRows; r++ {
		for c := range cols {
			if n := len(f.cellValue(rec, c, r)); n > widths[c] {
				widths[c] = n
			}
		}
	}

	if f.showHeaders {
		sb.WriteString(strings.Repeat("-", sum(widths)+len(cols)*3+1) + "\n")
		header := "|"
		for i, c := range cols {
			header += fmt.Sprintf(" %-*s |", widths[i], c)
		}
		sb.WriteString(header + "\n")
		sb.WriteString(strings.Repeat("-", sum(widths)+len(cols)*3+1) + "\n")
	}

	for r := 0; r < nRows; r++ {
		rowStr := "|"
		for c := range cols {
			rowStr += fmt.Sprintf(" %-*s |", widths[c], f.cellValue(rec, c, r))
		}
		sb.WriteString(rowStr + "\n")
	}
	return sb.String()
}

func (f *Formatter) formatCSV(rec arrow.Record) string {
	var sb strings.Builder
	cols := f.columnNames(rec)
	if f.showHeaders {
		sb.WriteString(strings.Join(cols, ",") + "\n")
	}
	nRows := int(rec.NumRows())
	for r := 0; r < nRows; r++ {
		vals := make([]string, len(cols))
		for c := range cols {
			vals[c] = f.cellValue(rec, c, r)
		}
		sb.WriteString(strings.Join(vals, ",") + "\n")
	}
	return sb.String()
}

func (f *Formatter) formatJSON(rec arrow.Record) string {
	var sb strings.Builder
	cols := f.columnNames(rec)
	nRows := int(rec.NumRows())
	sb.WriteString("[\n")
	for r := 0; r < nRows; r++ {
		sb.WriteString("  {")
		pairs := make([]string, len(cols))
		for c, name := range cols {
			pairs[c] = fmt.Sprintf("%q: %s", name, f.jsonValue(rec, c, r))
		}
		sb.WriteString(strings.Join(pairs, ", "))
		sb.WriteString("}")
		if r < nRows-1 {
			sb.WriteString(",")
		}
		sb.WriteString("\n")
	}
	sb.WriteString("]\n")
	return sb.String()
}

func (f *Formatter) formatList(rec arrow.Record) string {
	var sb strings.Builder
	cols := f.columnNames(rec)
	nRows := int(rec.NumRows())
	for r := 0; r < nRows; r++ {
		for c, name := range cols {
			sb.WriteString(fmt.Sprintf("%s = %s\n", name, f.cellValue(rec, c, r)))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// cellValue stringifies the value at (col, row); an Arrow null (a SYSMIS
// slot) prints as the configured null placeholder, never a bare empty
// string that could be confused with an empty data value.
func (f *Formatter) cellValue(rec arrow.Record, col, row int) string {
	arr := rec.Column(col)
	if arr.IsNull(row) {
		return f.nullValue
	}
	switch a := arr.(type) {
	case *array.Float64:
		return strconv.FormatFloat(a.Value(row), 'g', -1, 64)
	case *array.String:
		return a.Value(row)
	default:
		return fmt.Sprintf("%v", arr)
	}
}

func (f *Formatter) jsonValue(rec arrow.Record, col, row int) string {
	arr := rec.Column(col)
	if arr.IsNull(row) {
		return "null"
	}
	switch a := arr.(type) {
	case *array.Float64:
		return strconv.FormatFloat(a.Value(row), 'g', -1, 64)
	case *array.String:
		return strconv.Quote(a.Value(row))
	default:
		return strconv.Quote(fmt.Sprintf("%v", arr))
	}
}

func sum(nums []int) int {
	s := 0
	for _, n := range nums {
		s += n
	}
	return s
}
