package rowio

import (
	"github.com/cyw0ng95/savreader/internal/charset"
	"github.com/cyw0ng95/savreader/internal/model"
)

// Batch is one bounded-size chunk of rows, projected to the scanner's
// currently selected columns.
type Batch struct {
	Columns []string
	Rows    []*Row
}

// Scanner is the streaming row reader: it holds only the current
// batch plus the decompressor's own state, never the whole data section.
// Column projection never changes what is read off the wire — every slot
// of every row is still decoded in declaration order, exactly as the
// eager whole-file path would — it only changes what a batch reports, so
// that unprojected output is bit-identical to the eager path.
type Scanner struct {
	src       slotSource
	vars      []*model.Variable
	visible   []*model.Variable
	bigEndian bool
	dec       *charset.Decoder
	declared  int // header n_cases; -1 when the file does not declare a count

	maxRows  int // 0 = unbounded
	selected []int // indices into visible; nil = every column, in declaration order

	rowsRead int
	done     bool
}

// NewScanner builds a scanner over src using the fully resolved variable
// tables. declaredRows should be the header's n_cases (-1 if unknown).
func NewScanner(src slotSource, vars, visible []*model.Variable, bigEndian bool, dec *charset.Decoder, declaredRows int) *Scanner {
	return &Scanner{
		src:       src,
		vars:      vars,
		visible:   visible,
		bigEndian: bigEndian,
		dec:       dec,
		declared:  declaredRows,
	}
}

// SelectColumns restricts subsequent batches to the named columns, in the
// order given. Passing nil or an empty slice restores full projection.
func (s *Scanner) SelectColumns(names []string) error {
	if len(names) == 0 {
		s.selected = nil
		return nil
	}
	byName := make(map[string]int, len(s.visible))
	for i, v := range s.visible {
		byName[v.LongName] = i
	}
	indices := make([]int, len(names))
	for i, name := range names {
		idx, ok := byName[name]
		if !ok {
			return model.Errorf(model.ErrUnknownVariable, "unknown column %q", name)
		}
		indices[i] = idx
	}
	s.selected = indices
	return nil
}

// SetRowLimit bounds the total number of rows the scanner will ever
// produce across all calls to NextBatch. 0 means unbounded (the declared
// case count, or the stream's own end, still applies).
func (s *Scanner) SetRowLimit(n int) {
	s.maxRows = n
}

func (s *Scanner) columnNames() []string {
	if s.selected == nil {
		names := make([]string, len(s.visible))
		for i, v := range s.visible {
			names[i] = v.LongName
		}
		return names
	}
	names := make([]string, len(s.selected))
	for i, idx := range s.selected {
		names[i] = s.visible[idx].LongName
	}
	return names
}

func (s *Scanner) project(row *Row) *Row {
	if s.selected == nil {
		return row
	}
	out := &Row{
		Values: make([]model.Value, len(s.selected)),
		Nulls:  make([]bool, len(s.selected)),
	}
	for i, idx := range s.selected {
		out.Values[i] = row.Values[idx]
		out.Nulls[i] = row.Nulls[idx]
	}
	return out
}

// NextBatch reads up to batchSize rows and returns them projected to the
// current column selection. It returns (nil, nil) once the scanner is
// exhausted, and an error if the stream ends before the header's declared
// row count is satisfied.
func (s *Scanner) NextBatch(batchSize int) (*Batch, error) {
	if s.done {
		return nil, nil
	}

	rows := make([]*Row, 0, batchSize)
	for len(rows) < batchSize {
		if s.maxRows > 0 && s.rowsRead >= s.maxRows {
			s.done = true
			break
		}

		row, err := ReadRow(s.src, s.vars, s.bigEndian, s.dec)
		if err != nil {
			return nil, err
		}
		if row == nil {
			s.done = true
			if s.declared >= 0 && s.rowsRead < s.declared {
				return nil, model.Errorf(model.ErrUnexpectedEOF,
					"file declared %d cases but only %d were read", s.declared, s.rowsRead)
			}
			break
		}

		s.rowsRead++
		rows = append(rows, s.project(row))

		if s.declared >= 0 && s.rowsRead >= s.declared {
			s.done = true
			break
		}
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return &Batch{Columns: s.columnNames(), Rows: rows}, nil
}
