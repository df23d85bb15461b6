package dict

import (
	"strings"

	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

// parseVariableRecord reads one tag-2 record. The short name and
// label are kept as raw bytes; decoding waits for encoding selection in the
// resolver.
func parseVariableRecord(r *header.ByteReader) (*model.Variable, error) {
	rawType, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	hasLabel, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	nMissing, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	printFormat, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	writeFormat, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	nameBytes, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}

	v := &model.Variable{
		RawNameBytes: nameBytes,
		ShortName:    latin1Provisional(nameBytes),
		RawType:      int(rawType),
		PrintFormat:  model.DecodePackedFormat(printFormat),
		WriteFormat:  model.DecodePackedFormat(writeFormat),
		IsContinuation: rawType == -1,
	}

	if rawType == -1 {
		return v, nil
	}
	if rawType == 0 {
		v.VarType = model.NumericType()
	} else {
		v.VarType = model.StringType(int(rawType))
	}

	if hasLabel == 1 {
		labelLen, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		labelBytes, err := r.ReadBytes(int(labelLen))
		if err != nil {
			return nil, err
		}
		if pad := padTo4(int(labelLen)); pad > 0 {
			if err := r.Skip(pad); err != nil {
				return nil, err
			}
		}
		v.HasLabel = true
		v.RawLabelBytes = labelBytes
		v.Label = latin1Provisional(labelBytes)
	}

	missing, err := parseMissingValues(r, int(nMissing), rawType != 0)
	if err != nil {
		return nil, err
	}
	v.Missing = missing

	return v, nil
}

// parseMissingValues reads |nMissing| 8-byte slots and reassembles them
// according to the variable record's n_missing encoding. For string
// variables each slot is kept as a raw fixed string rather than
// interpreted as a float; for numeric variables it is read as an IEEE
// double.
func parseMissingValues(r *header.ByteReader, nMissing int, isString bool) ([]model.MissingSpec, error) {
	readNumeric := func() (float64, error) { return r.ReadF64() }
	readString := func() (string, error) {
		raw, err := r.ReadBytes(8)
		if err != nil {
			return "", err
		}
		return latin1Provisional(raw), nil
	}

	switch {
	case nMissing == 0:
		return nil, nil

	case nMissing >= 1 && nMissing <= 3:
		specs := make([]model.MissingSpec, 0, nMissing)
		for i := 0; i < nMissing; i++ {
			if isString {
				s, err := readString()
				if err != nil {
					return nil, err
				}
				specs = append(specs, model.NewMissingStringValue(s))
			} else {
				f, err := readNumeric()
				if err != nil {
					return nil, err
				}
				specs = append(specs, model.NewMissingValue(f))
			}
		}
		return specs, nil

	case nMissing == -2:
		lo, err := readNumeric()
		if err != nil {
			return nil, err
		}
		hi, err := readNumeric()
		if err != nil {
			return nil, err
		}
		return []model.MissingSpec{model.NewMissingRange(lo, hi)}, nil

	case nMissing == -3:
		lo, err := readNumeric()
		if err != nil {
			return nil, err
		}
		hi, err := readNumeric()
		if err != nil {
			return nil, err
		}
		var extra model.MissingSpec
		if isString {
			s, err := readString()
			if err != nil {
				return nil, err
			}
			extra = model.NewMissingStringValue(s)
		} else {
			f, err := readNumeric()
			if err != nil {
				return nil, err
			}
			extra = model.NewMissingValue(f)
		}
		return []model.MissingSpec{model.NewMissingRange(lo, hi), extra}, nil

	default:
		return nil, model.Errorf(model.ErrProtocol, "variable record has invalid n_missing %d", nMissing)
	}
}

func padTo4(n int) int {
	if rem := n % 4; rem != 0 {
		return 4 - rem
	}
	return 0
}

// latin1Provisional decodes raw header-section bytes one byte per rune and
// trims trailing spaces/NULs. It is a placeholder used until the resolver
// determines the file's true character encoding and re-decodes raw fields.
func latin1Provisional(raw []byte) string {
	runes := make([]rune, len(raw))
	for i, b := range raw {
		runes[i] = rune(b)
	}
	return strings.TrimRight(string(runes), " \x00")
}
