// Package rowio implements the row reader and string reassembly, and the
// streaming scanner: the pass that turns a decompressed slot stream plus
// the resolved variable table into row-major values.
package rowio

import (
	"encoding/binary"
	"math"

	"github.com/cyw0ng95/savreader/internal/charset"
	"github.com/cyw0ng95/savreader/internal/compress"
	"github.com/cyw0ng95/savreader/internal/model"
)

// slotSource is satisfied by both *compress.BytecodeDecompressor and the
// uncompressed adapter in this package: one 8-byte production per call,
// with compress.SlotEOF signaling stream exhaustion rather than an error.
type slotSource interface {
	Next() (compress.Slot, error)
}

// vlsSegmentSlots is the fixed slot count every very-long-string segment
// occupies on disk regardless of position: 252 useful bytes plus 4 bytes
// of padding, rounded up to whole 8-byte slots.
const vlsSegmentSlots = 32
const vlsSegmentBytes = vlsSegmentSlots * 8
const vlsUsefulBytes = 252

// Row is one decoded record: one Value per visible variable, in the same
// order as resolve.Result.Visible, with Nulls marking SYSMIS slots.
type Row struct {
	Values []model.Value
	Nulls  []bool
}

// ReadRow consumes exactly one row's worth of slots from src according to
// the slot plan derived from vars (the full declaration-order list,
// continuations and ghosts included — only it carries enough information
// to size every segment correctly). It returns (nil, nil) when src is
// exhausted at the first slot of the row, whether that slot belongs to a
// numeric or a string variable: the normal end-of-data signal
// for files whose header does not declare a case count.
func ReadRow(src slotSource, vars []*model.Variable, bigEndian bool, dec *charset.Decoder) (*Row, error) {
	visibleCount := 0
	for _, v := range vars {
		if v.IsVisible() {
			visibleCount++
		}
	}
	row := &Row{
		Values: make([]model.Value, 0, visibleCount),
		Nulls:  make([]bool, 0, visibleCount),
	}

	atRowStart := true
	i := 0
	for i < len(vars) {
		v := vars[i]

		if v.IsContinuation {
			return nil, model.Errorf(model.ErrProtocol,
				"row reader encountered an unconsumed continuation record at index %d", i)
		}

		if v.VarType.Numeric {
			slot, err := next(src)
			if err != nil {
				return nil, err
			}
			if slot.Kind == compress.SlotEOF {
				if atRowStart {
					return nil, nil
				}
				return nil, model.Errorf(model.ErrUnexpectedEOF, "row ended mid-record at variable %q", v.ShortName)
			}
			atRowStart = false
			val, isNull := numericFromSlot(slot, bigEndian)
			row.Values = append(row.Values, val)
			row.Nulls = append(row.Nulls, isNull)
			i++
			continue
		}

		// String variable: either an ordinary short string (<=255 bytes,
		// NSegments <= 1) or the base record of a VLS variable spanning
		// NSegments 32-slot segments. Either way v is the first record of
		// its own segment; ghost bases encountered directly (NSegments==0
		// on the ghost itself) are consumed as later segments below.
		segments := v.NSegments
		if segments < 1 {
			segments = 1
		}

		var content []byte
		consumed := 0
		first := true
		for seg := 0; seg < segments; seg++ {
			var segVar *model.Variable
			if first {
				segVar = v
				first = false
			} else {
				if i+consumed >= len(vars) {
					return nil, model.Errorf(model.ErrProtocol,
						"variable %q declares %d very-long-string segments but the dictionary ends first", v.ShortName, segments)
				}
				segVar = vars[i+consumed]
				if !segVar.IsGhost {
					return nil, model.Errorf(model.ErrProtocol,
						"variable %q: expected a ghost segment record, found %q", v.ShortName, segVar.ShortName)
				}
			}

			nSlots := slotsForSegment(v.VarType.Width, segments, seg)
			bytes, err := readSlotBytes(src, nSlots, &atRowStart, segVar.ShortName)
			if err != nil {
				return nil, err
			}
			if bytes == nil {
				return nil, nil
			}

			usefulBytes := segmentUsefulBytes(v.VarType.Width, segments, seg)
			content = append(content, bytes[:usefulBytes]...)

			advance := 1 // the named record itself
			advance += nSlots - 1
			consumed += advance
		}

		if v.IsGhost {
			i += consumed
			continue
		}

		row.Values = append(row.Values, model.StringVal(dec.Decode(content)))
		row.Nulls = append(row.Nulls, false)
		i += consumed
	}

	return row, nil
}

// slotsForSegment reports how many 8-byte slots the given segment index
// (0-based) of a string of total width occupies: ceil(width/8) for an
// ordinary (non-VLS) string, or the fixed 32 for every VLS segment.
func slotsForSegment(width, segments, seg int) int {
	if segments <= 1 {
		return (width + 7) / 8
	}
	return vlsSegmentSlots
}

// segmentUsefulBytes reports how many of a segment's slot bytes are real
// string content: the whole width for an ordinary string, 252 for a
// non-final VLS segment, and the width remainder for the final one.
func segmentUsefulBytes(width, segments, seg int) int {
	if segments <= 1 {
		return width
	}
	if seg < segments-1 {
		return vlsUsefulBytes
	}
	return width - (segments-1)*vlsUsefulBytes
}

// readSlotBytes reads n consecutive 8-byte slots and concatenates their
// bytes, resolving each slot's production (raw / spaces / the rare numeric
// opcode landing inside string data) into its literal byte representation.
// It returns (nil, nil) when src is exhausted before the row's first slot.
func readSlotBytes(src slotSource, n int, atRowStart *bool, name string) ([]byte, error) {
	out := make([]byte, 0, n*8)
	for k := 0; k < n; k++ {
		slot, err := next(src)
		if err != nil {
			return nil, err
		}
		if slot.Kind == compress.SlotEOF {
			if *atRowStart {
				return nil, nil
			}
			return nil, model.Errorf(model.ErrUnexpectedEOF, "row ended mid-record at variable %q", name)
		}
		*atRowStart = false
		out = append(out, bytesFromSlot(slot)...)
	}
	return out, nil
}

func bytesFromSlot(slot compress.Slot) []byte {
	switch slot.Kind {
	case compress.SlotSpaces:
		return []byte("        ")
	case compress.SlotRaw:
		buf := make([]byte, 8)
		copy(buf, slot.Raw[:])
		return buf
	default:
		// A numeric/sysmis opcode landed inside string data: the opcode
		// machine is byte-level and does not know field semantics, so the
		// literal bit pattern is recovered rather than the computed float.
		buf := make([]byte, 8)
		binary.LittleEndian.PutUint64(buf, math.Float64bits(slot.Numeric))
		return buf
	}
}

// numericFromSlot interprets a slot as a numeric value, reporting whether
// it is the SYSMIS sentinel (by exact bit pattern, never a NaN test).
func numericFromSlot(slot compress.Slot, bigEndian bool) (model.Value, bool) {
	switch slot.Kind {
	case compress.SlotSysmis:
		return model.NumericValue(model.Sysmis()), true
	case compress.SlotNumeric:
		f := slot.Numeric
		return model.NumericValue(f), model.IsSysmis(f)
	case compress.SlotSpaces:
		f := spacesAsFloat(bigEndian)
		return model.NumericValue(f), model.IsSysmis(f)
	default: // SlotRaw
		var order binary.ByteOrder = binary.LittleEndian
		if bigEndian {
			order = binary.BigEndian
		}
		f := math.Float64frombits(order.Uint64(slot.Raw[:]))
		return model.NumericValue(f), model.IsSysmis(f)
	}
}

func spacesAsFloat(bigEndian bool) float64 {
	var raw [8]byte
	copy(raw[:], "        ")
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	return math.Float64frombits(order.Uint64(raw[:]))
}

func next(src slotSource) (compress.Slot, error) {
	return src.Next()
}
