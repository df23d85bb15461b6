// Package resolve implements the post-dictionary resolver: the single
// pass that turns the dispatcher's raw, unresolved tables into a
// finalized variable list, a chosen text encoding, and the frozen metadata
// object the rest of the reader consumes.
package resolve

import (
	"github.com/cyw0ng95/savreader/internal/charset"
	"github.com/cyw0ng95/savreader/internal/dict"
	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

// Result is everything the resolver produces from one RawDictionary: the
// fully resolved variable table (declaration order, ghosts and
// continuations included — the row reader needs them to size slots), the
// frozen metadata object, and the chosen decoder for any caller that needs
// to re-decode something outside the fields this pass already covers.
type Result struct {
	All      []*model.Variable // declaration order, continuations and ghosts included
	Visible  []*model.Variable // declaration order, ghosts and continuations excluded
	Metadata *model.Metadata
	Decoder  *charset.Decoder
}

// Resolve runs the full resolution pass over a fully-dispatched raw
// dictionary and the parsed header.
func Resolve(h *header.Header, d *dict.RawDictionary) (*Result, error) {
	vars := d.Variables

	resolveLongNames(vars, d.LongNames)

	if err := resolveVeryLongStrings(vars, d.VeryLongWidths); err != nil {
		return nil, err
	}

	if err := applyDisplayInfo(vars, d.DisplayInfo); err != nil {
		return nil, err
	}

	decoder, encodingName, err := selectEncoding(d)
	if err != nil {
		return nil, err
	}
	redecodeText(vars, d, decoder)

	if err := attachValueLabels(vars, d.LabelGroups, d.LongStrLabels, h.BigEndian, decoder); err != nil {
		return nil, err
	}

	mrSets, err := resolveMrSets(d.MrSets, vars)
	if err != nil {
		return nil, err
	}

	weight, err := resolveWeight(h.WeightIndex, vars)
	if err != nil {
		return nil, err
	}

	visible := visibleVariables(vars)
	metadata := buildMetadata(h, d, decoder, encodingName, visible, mrSets, weight)

	return &Result{
		All:      vars,
		Visible:  visible,
		Metadata: metadata,
		Decoder:  decoder,
	}, nil
}

// resolveLongNames is step 1: replace each variable's long name via
// subtype 13; unmapped variables retain their short name. Short/long names
// are always ASCII in practice, so this can run before encoding selection.
func resolveLongNames(vars []*model.Variable, longNames map[string]string) {
	for _, v := range vars {
		if v.IsContinuation {
			continue
		}
		if long, ok := longNames[normalizeName(v.ShortName)]; ok {
			v.LongName = long
		} else {
			v.LongName = v.ShortName
		}
	}
}

// resolveVeryLongStrings is step 2: recover true VLS widths and mark the
// ghost segments that follow. Matching is tried against both the short and
// (already resolved) long name since real files vary in which one subtype
// 14 names.
func resolveVeryLongStrings(vars []*model.Variable, widths map[string]int) error {
	for i, v := range vars {
		if v.IsContinuation || v.IsGhost {
			continue
		}
		trueWidth, ok := widths[normalizeName(v.ShortName)]
		if !ok {
			trueWidth, ok = widths[normalizeName(v.LongName)]
		}
		if !ok || trueWidth <= 255 {
			continue
		}

		v.VarType = model.StringType(trueWidth)
		nSegments := (trueWidth + 251) / 252
		v.NSegments = nSegments

		if nSegments <= 1 {
			continue
		}
		segmentsFound := 1 // this variable is the first segment
		j := i + 1
		for j < len(vars) && segmentsFound < nSegments {
			if !vars[j].IsContinuation && !vars[j].IsGhost {
				vars[j].IsGhost = true
				segmentsFound++
			}
			j++
		}
		if segmentsFound < nSegments {
			return model.Errorf(model.ErrProtocol,
				"variable %q declares very-long-string width %d (%d segments) but only %d segment records follow",
				v.ShortName, trueWidth, nSegments, segmentsFound)
		}
	}
	return nil
}

// applyDisplayInfo is step 3: walk every non-continuation record in
// declaration order, consuming one subtype-11 triple each (including
// ghosts), applying it only when the record is visible.
func applyDisplayInfo(vars []*model.Variable, triples []dict.DisplayTriple) error {
	displayIdx := 0
	for _, v := range vars {
		if v.IsContinuation {
			continue
		}
		if displayIdx < len(triples) {
			t := triples[displayIdx]
			if !v.IsGhost {
				v.Measure = decodeMeasure(t.Measure)
				v.DisplayWidth = int(t.DisplayWidth)
				v.Alignment = decodeAlignment(t.Alignment)
			}
		}
		displayIdx++
	}

	for _, v := range vars {
		if v.IsVisible() && v.VarType.Width > 255 && v.DisplayWidth == 0 {
			v.DisplayWidth = v.VarType.Width
		}
	}
	return nil
}

func decodeMeasure(raw int32) model.Measure {
	switch raw {
	case 1:
		return model.MeasureNominal
	case 2:
		return model.MeasureOrdinal
	case 3:
		return model.MeasureScale
	default:
		return model.MeasureUnknown
	}
}

func decodeAlignment(raw int32) model.Alignment {
	switch raw {
	case 0:
		return model.AlignLeft
	case 1:
		return model.AlignRight
	case 2:
		return model.AlignCenter
	default:
		return model.AlignLeft
	}
}

// selectEncoding is step 5's lookup half: choosing the decoder. The actual
// re-decoding of stored text happens in redecodeText.
func selectEncoding(d *dict.RawDictionary) (*charset.Decoder, string, error) {
	var codePage int32
	if d.IntegerInfo != nil {
		codePage = d.IntegerInfo.CharacterCode
	}
	name, enc, err := charset.Select(d.EncodingName, codePage)
	if err != nil {
		return nil, "", err
	}
	return charset.NewDecoder(name, enc), name, nil
}

// redecodeText is the rest of step 5: every stored raw-byte field is
// re-decoded from scratch now that the encoding is known, replacing the
// provisional Latin-1 decode applied during dispatch.
func redecodeText(vars []*model.Variable, d *dict.RawDictionary, dec *charset.Decoder) {
	for _, v := range vars {
		if len(v.RawNameBytes) > 0 {
			v.ShortName = dec.Decode(v.RawNameBytes)
		}
		if v.HasLabel && len(v.RawLabelBytes) > 0 {
			v.Label = dec.Decode(v.RawLabelBytes)
		}
	}
	for i, raw := range d.RawDocuments {
		d.Documents[i] = dec.DecodeExact(raw)
	}
	for gi := range d.LabelGroups {
		group := &d.LabelGroups[gi]
		for li, raw := range group.RawLabels {
			group.Labels[li] = dec.Decode(raw)
		}
	}
	for i := range d.MrSets {
		// subtype 7's text was stored as a raw byte-for-byte Go string
		// (never rune-expanded), so []byte(...) recovers the original
		// bytes exactly; only the label portion may carry non-ASCII text.
		d.MrSets[i].Label = dec.Decode([]byte(d.MrSets[i].Label))
	}
}

func visibleVariables(vars []*model.Variable) []*model.Variable {
	visible := make([]*model.Variable, 0, len(vars))
	for _, v := range vars {
		if v.IsVisible() {
			visible = append(visible, v)
		}
	}
	return visible
}

