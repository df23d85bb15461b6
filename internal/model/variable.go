package model

// Measure is the SPSS scale-of-measurement annotation.
type Measure int

const (
	MeasureUnknown Measure = iota
	MeasureNominal
	MeasureOrdinal
	MeasureScale
)

// Alignment is the display alignment of a variable.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignRight
	AlignCenter
)

// VarType is the resolved storage type of a variable: numeric, or a string
// of a given width (the width may exceed 255 for a VLS variable).
type VarType struct {
	Numeric bool
	Width   int // string width in bytes; meaningless when Numeric
}

// NumericType is the resolved type of a numeric variable.
func NumericType() VarType { return VarType{Numeric: true} }

// StringType is the resolved type of a string variable of the given width.
func StringType(width int) VarType { return VarType{Width: width} }

// PackedFormat is the 32-bit (type<<16 | width<<8 | decimals) format spec
// read verbatim from the variable record. The width byte saturates at 255
// for VLS variables; the true width is recovered from subtype 14.
type PackedFormat struct {
	TypeCode int
	Width    int
	Decimals int
}

// DecodePackedFormat splits a raw packed format integer into its fields.
func DecodePackedFormat(raw int32) PackedFormat {
	return PackedFormat{
		TypeCode: int((raw >> 16) & 0xFF),
		Width:    int((raw >> 8) & 0xFF),
		Decimals: int(raw & 0xFF),
	}
}

// Variable is the internal descriptor accumulated during dictionary
// dispatch and mutated in place by the post-dictionary resolver.
type Variable struct {
	ShortName string
	LongName  string // filled in by long-name resolution; defaults to ShortName

	RawNameBytes  []byte // undecoded 8-byte short name, kept until encoding is known
	RawLabelBytes []byte // undecoded variable label, kept until encoding is known

	RawType int // -1 continuation, 0 numeric, >0 string width (capped at 255)
	VarType VarType

	Label    string
	HasLabel bool

	Missing []MissingSpec

	PrintFormat PackedFormat
	WriteFormat PackedFormat

	Measure      Measure
	DisplayWidth int
	Alignment    Alignment

	ValueLabels map[Value]string

	IsGhost        bool // non-first segment of a VLS variable
	IsContinuation bool // raw_type == -1

	// VLS bookkeeping, set during resolution for the base (non-ghost) segment.
	NSegments int
}

// IsVisible reports whether v should appear in the public schema: neither a
// continuation record nor a ghost segment.
func (v *Variable) IsVisible() bool {
	return !v.IsContinuation && !v.IsGhost
}
