// Package dict implements the dictionary-section record dispatcher: the
// tag-driven loop that reads variable, value-label, document and info
// records after the header and before the first row of data. It performs no
// cross-record resolution; that is the job of package resolve.
package dict

import (
	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
	"github.com/cyw0ng95/savreader/internal/obslog"
)

const (
	tagVariable    = 2
	tagValueLabels = 3
	tagVarIndex    = 4
	tagDocument    = 6
	tagInfo        = 7
	tagTerminator  = 999
)

// LabelGroup is one paired tag-3/tag-4 value-label table: the raw 8-byte
// keys (numeric-or-string ambiguity resolved later against the variable's
// declared type), their label text, and the 1-based variable indices the
// tag-4 record attached them to.
type LabelGroup struct {
	RawValues  [][8]byte
	RawLabels  [][]byte // undecoded label text, kept until encoding is known
	Labels     []string
	VarIndices []int
}

// RawDictionary accumulates everything the dispatcher reads, in declaration
// order, with no cross-record interpretation applied yet.
type RawDictionary struct {
	Variables   []*model.Variable
	LabelGroups []LabelGroup
	Documents   []string // provisional decode; re-decoded by the resolver once encoding is known
	RawDocuments [][]byte

	IntegerInfo    *IntegerInfo
	FloatInfo      *FloatInfo
	MrSets         []RawMrSet // subtype 7, variable names still SHORT names
	DisplayInfo    []DisplayTriple
	LongNames      map[string]string    // subtype 13: SHORT -> LONG
	VeryLongWidths map[string]int       // subtype 14: VARNAME -> true width
	EncodingName   string               // subtype 20
	LongStrLabels  map[string]LabelSet  // subtype 21, keyed by long var name
	LongStrMissing map[string][]model.MissingSpec // subtype 22, keyed by long var name
}

// LabelSet is a value->label table for a single variable (subtype 21).
type LabelSet struct {
	Values []string
	Labels []string
}

// IntegerInfo is the decoded subtype-3 record: eight i32s.
type IntegerInfo struct {
	VersionMajor    int32
	VersionMinor    int32
	VersionRevision int32
	MachineCode     int32
	FloatFormat     int32 // 1=IEEE, 2=IBM, 3=VAX
	CompressionCode int32
	Endianness      int32 // 1=big, 2=little
	CharacterCode   int32 // IANA code page, fallback encoding source
}

// FloatInfo is the decoded subtype-4 record.
type FloatInfo struct {
	Sysmis  float64
	Highest float64
	Lowest  float64
}

// DisplayTriple is one subtype-11 entry: measure, display width, alignment,
// as raw integers (mapped to model enums by the resolver).
type DisplayTriple struct {
	Measure      int32
	DisplayWidth int32
	Alignment    int32
}

// Dispatch reads dictionary records from r until the tag-999 terminator,
// returning the accumulated raw tables.
func Dispatch(r *header.ByteReader, log *obslog.Logger) (*RawDictionary, error) {
	if log == nil {
		log = obslog.Default()
	}
	d := &RawDictionary{
		LongNames:      map[string]string{},
		VeryLongWidths: map[string]int{},
		LongStrLabels:  map[string]LabelSet{},
		LongStrMissing: map[string][]model.MissingSpec{},
	}

	var pendingLabelGroup *LabelGroup

	for {
		tag, err := r.ReadI32()
		if err != nil {
			return nil, err
		}

		switch tag {
		case tagVariable:
			if pendingLabelGroup != nil {
				return nil, model.Errorf(model.ErrProtocol, "tag 3 not immediately followed by tag 4")
			}
			v, err := parseVariableRecord(r)
			if err != nil {
				return nil, err
			}
			d.Variables = append(d.Variables, v)

		case tagValueLabels:
			if pendingLabelGroup != nil {
				return nil, model.Errorf(model.ErrProtocol, "tag 3 not immediately followed by tag 4")
			}
			group, err := parseValueLabelRecord(r)
			if err != nil {
				return nil, err
			}
			pendingLabelGroup = group

		case tagVarIndex:
			if pendingLabelGroup == nil {
				return nil, model.Errorf(model.ErrProtocol, "tag 4 with no preceding tag 3")
			}
			indices, err := parseVarIndexRecord(r)
			if err != nil {
				return nil, err
			}
			pendingLabelGroup.VarIndices = indices
			d.LabelGroups = append(d.LabelGroups, *pendingLabelGroup)
			pendingLabelGroup = nil

		case tagDocument:
			if pendingLabelGroup != nil {
				return nil, model.Errorf(model.ErrProtocol, "tag 3 not immediately followed by tag 4")
			}
			lines, err := parseDocumentRecord(r)
			if err != nil {
				return nil, err
			}
			for _, line := range lines {
				d.RawDocuments = append(d.RawDocuments, line)
				d.Documents = append(d.Documents, latin1Provisional(line))
			}

		case tagInfo:
			if pendingLabelGroup != nil {
				return nil, model.Errorf(model.ErrProtocol, "tag 3 not immediately followed by tag 4")
			}
			if err := dispatchInfoRecord(r, d, log); err != nil {
				return nil, err
			}

		case tagTerminator:
			if err := r.Skip(4); err != nil {
				return nil, err
			}
			if pendingLabelGroup != nil {
				return nil, model.Errorf(model.ErrProtocol, "dictionary terminated with an unpaired tag 3")
			}
			return d, nil

		default:
			return nil, model.Errorf(model.ErrUnknownRecord, "unknown dictionary record tag %d", tag)
		}
	}
}
