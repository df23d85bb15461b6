package resolve

import (
	"encoding/binary"
	"math"

	"github.com/cyw0ng95/savreader/internal/charset"
	"github.com/cyw0ng95/savreader/internal/dict"
	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

// attachValueLabels is step 6: paired tag-3/tag-4 tables (numeric or short
// string keys, resolved against the 1-based declaration-order index into
// the full variable list) and subtype 21 (long-string keys, by long name).
func attachValueLabels(vars []*model.Variable, groups []dict.LabelGroup, longStrLabels map[string]dict.LabelSet, bigEndian bool, dec *charset.Decoder) error {
	for _, group := range groups {
		for _, idx := range group.VarIndices {
			if idx < 1 || idx > len(vars) {
				return model.Errorf(model.ErrProtocol, "value label table references out-of-range variable index %d", idx)
			}
			v := vars[idx-1]
			if v.ValueLabels == nil {
				v.ValueLabels = map[model.Value]string{}
			}
			for i, raw := range group.RawValues {
				key := labelKeyFor(v, raw, bigEndian, dec)
				v.ValueLabels[key] = group.Labels[i]
			}
		}
	}

	byLongName := map[string]*model.Variable{}
	for _, v := range vars {
		if v.IsVisible() {
			byLongName[normalizeName(v.LongName)] = v
		}
	}
	for name, set := range longStrLabels {
		v, ok := byLongName[normalizeName(name)]
		if !ok {
			return model.Errorf(model.ErrProtocol, "subtype 21 names unknown variable %q", name)
		}
		if v.ValueLabels == nil {
			v.ValueLabels = map[model.Value]string{}
		}
		for i := range set.Values {
			v.ValueLabels[model.StringVal(set.Values[i])] = set.Labels[i]
		}
	}
	return nil
}

// labelKeyFor reinterprets a raw 8-byte value-label key according to the
// variable's now-known declared type (numeric double in the file's byte
// order, or fixed-width raw string bytes); the key's type cannot be known
// until the tag-4 record is matched back to its variable.
func labelKeyFor(v *model.Variable, raw [8]byte, bigEndian bool, dec *charset.Decoder) model.Value {
	if v.VarType.Numeric {
		var order binary.ByteOrder = binary.LittleEndian
		if bigEndian {
			order = binary.BigEndian
		}
		return model.NumericValue(math.Float64frombits(order.Uint64(raw[:])))
	}
	return model.StringVal(dec.Decode(raw[:]))
}

func resolveMrSets(raw []dict.RawMrSet, vars []*model.Variable) (*model.OrderedMap[*model.MrSet], error) {
	byShortName := map[string]*model.Variable{}
	for _, v := range vars {
		if v.IsVisible() {
			byShortName[normalizeName(v.ShortName)] = v
		}
	}

	sets := model.NewOrderedMap[*model.MrSet]()
	for _, r := range raw {
		var longNames []string
		for _, short := range r.VarNames {
			if v, ok := byShortName[normalizeName(short)]; ok {
				longNames = append(longNames, v.LongName)
			}
			// members that don't match a visible variable are dropped
		}
		sets.Set(r.Name, &model.MrSet{
			Name:         r.Name,
			Label:        r.Label,
			Kind:         r.Kind,
			CountedValue: r.CountedValue,
			Variables:    longNames,
		})
	}
	return sets, nil
}

// resolveWeight is step 8: the header's 1-based weight index addresses the
// full declaration-order variable list (continuations and ghosts included,
// same indexing tag-4 uses); it is mapped to the visible long name.
func resolveWeight(weightIndex int32, vars []*model.Variable) (*string, error) {
	if weightIndex <= 0 {
		return nil, nil
	}
	idx := int(weightIndex)
	if idx > len(vars) {
		return nil, model.Errorf(model.ErrProtocol, "header weight index %d is out of range", weightIndex)
	}
	v := vars[idx-1]
	if !v.IsVisible() {
		return nil, model.Errorf(model.ErrProtocol, "header weight index %d names a non-visible variable", weightIndex)
	}
	name := v.LongName
	return &name, nil
}

// buildMetadata is step 10: freeze the resolved variable table into the
// public, insertion-ordered metadata object.
func buildMetadata(
	h *header.Header,
	d *dict.RawDictionary,
	dec *charset.Decoder,
	encodingName string,
	visible []*model.Variable,
	mrSets *model.OrderedMap[*model.MrSet],
	weight *string,
) *model.Metadata {
	names := make([]string, len(visible))
	varMap := model.NewOrderedMap[*model.VariableMeta]()

	for i, v := range visible {
		names[i] = v.LongName

		outputType := model.OutputFloat64
		if !v.VarType.Numeric {
			outputType = model.OutputString
		}

		var format string
		if v.VarType.Width > 255 {
			format = vlsFormatString(v.VarType.Width)
		} else {
			format = formatString(v.PrintFormat)
		}

		storageWidth := 8
		if !v.VarType.Numeric {
			if v.NSegments > 1 {
				storageWidth = v.NSegments * 256
			} else {
				storageWidth = roundUp8(v.VarType.Width)
			}
		}

		varMap.Set(v.LongName, &model.VariableMeta{
			Label:        v.Label,
			Format:       format,
			OutputType:   outputType,
			ValueLabels:  v.ValueLabels,
			Measure:      v.Measure,
			Alignment:    v.Alignment,
			DisplayWidth: v.DisplayWidth,
			StorageWidth: storageWidth,
			Missing:      v.Missing,
		})
	}

	var numRows *int
	if h.NCases >= 0 {
		n := int(h.NCases)
		numRows = &n
	}

	fileInfo := model.FileInfo{
		FileLabel:   dec.Decode(h.FileLabelRaw),
		Encoding:    encodingName,
		Compression: h.Compression,
		CreatedDate: dec.Decode(h.CreatedDateRaw),
		CreatedTime: dec.Decode(h.CreatedTimeRaw),
		Documents:   append([]string(nil), d.Documents...),
		NumRows:     numRows,
		NumColumns:  len(visible),
		FileFormat:  h.FileFormat,
	}

	return &model.Metadata{
		File:          fileInfo,
		VariableNames: names,
		Variables:     varMap,
		MrSets:        mrSets,
		Weight:        weight,
	}
}

func roundUp8(n int) int {
	if rem := n % 8; rem != 0 {
		return n + (8 - rem)
	}
	return n
}

