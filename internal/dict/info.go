package dict

import (
	"strconv"
	"strings"

	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
	"github.com/cyw0ng95/savreader/internal/obslog"
)

const (
	subtypeMrSets          = 7
	subtypeIntegerInfo     = 3
	subtypeFloatInfo       = 4
	subtypeVarDisplay      = 11
	subtypeLongVarNames    = 13
	subtypeVeryLongStrings = 14
	subtypeEncoding        = 20
	subtypeLongStrLabels   = 21
	subtypeLongStrMissing  = 22
)

// dispatchInfoRecord reads one tag-7 record: subtype, element size, element
// count, then size*count payload bytes, which are fully consumed before any
// subtype-specific interpretation is attempted. A payload whose
// shape doesn't match what a recognized subtype expects is skipped with a
// warning rather than failing the whole read.
func dispatchInfoRecord(r *header.ByteReader, d *RawDictionary, log *obslog.Logger) error {
	subtype, err := r.ReadI32()
	if err != nil {
		return err
	}
	size, err := r.ReadI32()
	if err != nil {
		return err
	}
	count, err := r.ReadI32()
	if err != nil {
		return err
	}
	if size < 0 || count < 0 {
		return model.Errorf(model.ErrProtocol, "info record subtype %d has negative size/count", subtype)
	}

	payload, err := r.ReadBytes(int(size) * int(count))
	if err != nil {
		return err
	}

	switch subtype {
	case subtypeIntegerInfo:
		if size != 4 || count != 8 {
			log.Warn("skipping subtype 3 with unexpected shape size=%d count=%d", size, count)
			return nil
		}
		d.IntegerInfo = parseIntegerInfo(payload, r.BigEndian())

	case subtypeFloatInfo:
		if size != 8 || count != 3 {
			log.Warn("skipping subtype 4 with unexpected shape size=%d count=%d", size, count)
			return nil
		}
		d.FloatInfo = parseFloatInfo(payload, r.BigEndian())

	case subtypeMrSets:
		for _, line := range splitNonEmptyLines(string(payload)) {
			if set, ok := parseMrSetLine(line); ok {
				d.MrSets = append(d.MrSets, set)
			} else {
				log.Warn("skipping malformed multiple-response set line")
			}
		}

	case subtypeVarDisplay:
		if size != 4 {
			log.Warn("skipping subtype 11 with unexpected element size %d", size)
			return nil
		}
		d.DisplayInfo = append(d.DisplayInfo, parseVarDisplay(payload, int(count), r.BigEndian())...)

	case subtypeLongVarNames:
		for short, long := range parseLongVarNames(string(payload)) {
			d.LongNames[short] = long
		}

	case subtypeVeryLongStrings:
		for name, width := range parseVeryLongStrings(string(payload)) {
			d.VeryLongWidths[name] = width
		}

	case subtypeEncoding:
		d.EncodingName = strings.TrimSpace(string(payload))

	case subtypeLongStrLabels:
		for name, set := range parseLongStringLabels(payload) {
			d.LongStrLabels[name] = set
		}

	case subtypeLongStrMissing:
		for name, specs := range parseLongStringMissing(payload) {
			d.LongStrMissing[name] = specs
		}

	default:
		log.Debug("ignoring unrecognized info record subtype %d (%d bytes)", subtype, len(payload))
	}

	return nil
}

func parseIntegerInfo(payload []byte, bigEndian bool) *IntegerInfo {
	ints := decodeI32Slice(payload, bigEndian)
	return &IntegerInfo{
		VersionMajor:    ints[0],
		VersionMinor:    ints[1],
		VersionRevision: ints[2],
		MachineCode:     ints[3],
		FloatFormat:     ints[4],
		CompressionCode: ints[5],
		Endianness:      ints[6],
		CharacterCode:   ints[7],
	}
}

func parseFloatInfo(payload []byte, bigEndian bool) *FloatInfo {
	order := littleOrBig(bigEndian)
	return &FloatInfo{
		Sysmis:  bitsToFloat(order.Uint64(payload[0:8])),
		Highest: bitsToFloat(order.Uint64(payload[8:16])),
		Lowest:  bitsToFloat(order.Uint64(payload[16:24])),
	}
}

// parseVarDisplay decodes subtype 11. When the total element count is
// divisible by 3 each variable carries (measure, display_width,
// alignment); otherwise it carries only (measure, alignment) and the
// display width defaults to 8.
func parseVarDisplay(payload []byte, count int, bigEndian bool) []DisplayTriple {
	ints := decodeI32Slice(payload, bigEndian)
	hasWidth := count%3 == 0
	stride := 3
	if !hasWidth {
		stride = 2
	}
	n := count / stride
	triples := make([]DisplayTriple, 0, n)
	for i := 0; i < n; i++ {
		base := i * stride
		if hasWidth {
			triples = append(triples, DisplayTriple{
				Measure:      ints[base],
				DisplayWidth: ints[base+1],
				Alignment:    ints[base+2],
			})
		} else {
			triples = append(triples, DisplayTriple{
				Measure:      ints[base],
				DisplayWidth: 8,
				Alignment:    ints[base+1],
			})
		}
	}
	return triples
}

// parseLongVarNames decodes subtype 13: tab-separated SHORT=LONG pairs.
func parseLongVarNames(text string) map[string]string {
	result := map[string]string{}
	for _, pair := range strings.Split(text, "\t") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		short, long, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		result[strings.ToUpper(strings.TrimSpace(short))] = strings.TrimSpace(long)
	}
	return result
}

// parseVeryLongStrings decodes subtype 14: VARNAME=WIDTH entries separated
// by NUL and/or tab.
func parseVeryLongStrings(text string) map[string]int {
	result := map[string]int{}
	for _, entry := range strings.FieldsFunc(text, func(r rune) bool { return r == '\x00' || r == '\t' }) {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		name, widthStr, ok := strings.Cut(entry, "=")
		if !ok {
			continue
		}
		width, err := strconv.Atoi(strings.TrimSpace(widthStr))
		if err != nil {
			continue
		}
		result[strings.ToUpper(strings.TrimSpace(name))] = width
	}
	return result
}

// parseLongStringLabels decodes subtype 21: repeated
// (var_name_len i32, var_name, label_count i32, (value_len i32, value,
// label_len i32, label)*).
func parseLongStringLabels(data []byte) map[string]LabelSet {
	result := map[string]LabelSet{}
	pos := 0
	for pos+4 <= len(data) {
		nameLen, ok := readI32LE(data, pos)
		if !ok {
			break
		}
		pos += 4
		if pos+nameLen > len(data) {
			break
		}
		name := strings.ToUpper(strings.TrimSpace(string(data[pos : pos+nameLen])))
		pos += nameLen

		if pos+4 > len(data) {
			break
		}
		labelCount, ok := readI32LE(data, pos)
		pos += 4

		set := LabelSet{}
		for i := 0; ok && i < labelCount; i++ {
			var valueLen int
			valueLen, ok = readI32LE(data, pos)
			if !ok {
				break
			}
			pos += 4
			if pos+valueLen > len(data) {
				break
			}
			value := string(data[pos : pos+valueLen])
			pos += valueLen

			var labelLen int
			labelLen, ok = readI32LE(data, pos)
			if !ok {
				break
			}
			pos += 4
			if pos+labelLen > len(data) {
				break
			}
			label := string(data[pos : pos+labelLen])
			pos += labelLen

			set.Values = append(set.Values, value)
			set.Labels = append(set.Labels, label)
		}
		result[name] = set
	}
	return result
}

// parseLongStringMissing decodes subtype 22: repeated
// (var_name_len i32, var_name, n_values u8, value_len i32, (value)*n_values).
func parseLongStringMissing(data []byte) map[string][]model.MissingSpec {
	result := map[string][]model.MissingSpec{}
	pos := 0
	for pos+4 <= len(data) {
		nameLen, ok := readI32LE(data, pos)
		if !ok {
			break
		}
		pos += 4
		if pos+nameLen > len(data) {
			break
		}
		name := strings.ToUpper(strings.TrimSpace(string(data[pos : pos+nameLen])))
		pos += nameLen

		if pos >= len(data) {
			break
		}
		nValues := int(data[pos])
		pos++

		valueLen, ok := readI32LE(data, pos)
		if !ok {
			break
		}
		pos += 4

		specs := make([]model.MissingSpec, 0, nValues)
		for i := 0; i < nValues; i++ {
			if pos+valueLen > len(data) {
				break
			}
			specs = append(specs, model.NewMissingStringValue(string(data[pos:pos+valueLen])))
			pos += valueLen
		}
		result[name] = specs
	}
	return result
}

func readI32LE(data []byte, pos int) (int, bool) {
	if pos+4 > len(data) {
		return 0, false
	}
	v := int(int32(uint32(data[pos]) | uint32(data[pos+1])<<8 | uint32(data[pos+2])<<16 | uint32(data[pos+3])<<24))
	return v, true
}

func splitNonEmptyLines(text string) []string {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Trim(line, "\x00")
		line = strings.TrimSpace(line)
		if line != "" {
			lines = append(lines, line)
		}
	}
	return lines
}
