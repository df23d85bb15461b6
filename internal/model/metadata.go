package model

// Compression enumerates the on-disk compression scheme declared in the
// header's compression_code field.
type Compression int

const (
	CompressionNone Compression = iota
	CompressionBytecode
	CompressionZlib
)

// OutputType is the abstract Arrow-facing type tag carried in metadata.
type OutputType int

const (
	OutputFloat64 OutputType = iota
	OutputString
)

func (t OutputType) String() string {
	if t == OutputString {
		return "String"
	}
	return "f64"
}

// FileInfo holds the file-level metadata: label, encoding, compression,
// dates, documents, row/column counts and the format tag.
type FileInfo struct {
	FileLabel   string
	Encoding    string
	Compression Compression
	CreatedDate string
	CreatedTime string
	Documents   []string
	NumRows     *int // nil when the header declares n_cases == -1
	NumColumns  int
	FileFormat  string // "sav" or "zsav"
}

// VariableMeta is the finalized, publicly visible per-variable record.
type VariableMeta struct {
	Label        string
	Format       string
	OutputType   OutputType
	ValueLabels  map[Value]string
	Measure      Measure
	Alignment    Alignment
	DisplayWidth int
	StorageWidth int
	Missing      []MissingSpec
}

// Metadata is the frozen, immutable object returned alongside (or instead
// of) the data batch. All per-variable maps share the same key set: the
// visible long variable names, in declaration order.
type Metadata struct {
	File FileInfo

	VariableNames []string // declaration order; defines Arrow column order
	Variables     *OrderedMap[*VariableMeta]

	MrSets *OrderedMap[*MrSet]
	Weight *string // nil when the header names no weight variable
}

// NumberRows mirrors FileInfo.NumRows for callers that prefer a method.
func (m *Metadata) NumberRows() *int { return m.File.NumRows }
