package dict

import (
	"bytes"
	"encoding/binary"
	"math"
	"testing"

	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

type builder struct {
	buf   *bytes.Buffer
	order binary.ByteOrder
}

func newBuilder() *builder {
	return &builder{buf: &bytes.Buffer{}, order: binary.LittleEndian}
}

func (b *builder) i32(v int32) *builder {
	buf := make([]byte, 4)
	b.order.PutUint32(buf, uint32(v))
	b.buf.Write(buf)
	return b
}

func (b *builder) u32(v uint32) *builder {
	buf := make([]byte, 4)
	b.order.PutUint32(buf, v)
	b.buf.Write(buf)
	return b
}

func (b *builder) f64(v float64) *builder {
	buf := make([]byte, 8)
	b.order.PutUint64(buf, math.Float64bits(v))
	b.buf.Write(buf)
	return b
}

func (b *builder) raw(data []byte) *builder {
	b.buf.Write(data)
	return b
}

func (b *builder) fixed(s string, width int) *builder {
	buf := make([]byte, width)
	copy(buf, s)
	for i := len(s); i < width; i++ {
		buf[i] = ' '
	}
	b.buf.Write(buf)
	return b
}

func (b *builder) bytes() []byte { return b.buf.Bytes() }

func TestDispatchNumericVariableWithLabelAndMissing(t *testing.T) {
	b := newBuilder()
	b.i32(2) // tag: variable record
	b.i32(0) // raw_type numeric
	b.i32(1) // has_label
	b.i32(1) // n_missing
	b.i32(5 << 16) // print_format
	b.i32(5 << 16) // write_format
	b.fixed("AGE", 8)
	b.i32(3) // label_len
	b.raw([]byte("Age"))
	b.raw([]byte{0}) // pad to 4-byte boundary (3+1=4)
	b.f64(-1.0)       // one discrete missing value

	b.i32(999) // terminator
	b.i32(0)

	d := mustDispatch(t, b.bytes())
	if len(d.Variables) != 1 {
		t.Fatalf("expected 1 variable, got %d", len(d.Variables))
	}
	v := d.Variables[0]
	if v.ShortName != "AGE" {
		t.Errorf("ShortName = %q, want AGE", v.ShortName)
	}
	if !v.VarType.Numeric {
		t.Errorf("expected numeric variable")
	}
	if !v.HasLabel || v.Label != "Age" {
		t.Errorf("Label = %q HasLabel=%v, want \"Age\" true", v.Label, v.HasLabel)
	}
	if len(v.Missing) != 1 || v.Missing[0].Kind != model.MissingValue || v.Missing[0].Val != -1.0 {
		t.Errorf("Missing = %+v, want one discrete -1.0", v.Missing)
	}
}

func TestDispatchValueLabelsAttachToVariable(t *testing.T) {
	// Built by hand rather than via builder because the label-length field
	// in a tag-3 record is a single byte, not an i32.
	buf := &bytes.Buffer{}
	writeI32 := func(v int32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	writeU32 := func(v uint32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, v)
		buf.Write(tmp)
	}
	writeF64 := func(v float64) {
		tmp := make([]byte, 8)
		binary.LittleEndian.PutUint64(tmp, math.Float64bits(v))
		buf.Write(tmp)
	}

	writeI32(3) // tag 3
	writeU32(2) // n_labels
	writeF64(1.0)
	buf.WriteByte(4)
	buf.WriteString("Male")
	buf.Write(make([]byte, padTo8(1+4)))
	writeF64(2.0)
	buf.WriteByte(6)
	buf.WriteString("Female")
	buf.Write(make([]byte, padTo8(1+6)))

	writeI32(4) // tag 4
	writeI32(1) // n_vars
	writeI32(1) // var index 1

	writeI32(2) // tag 2: variable record for index 1
	writeI32(0) // numeric
	writeI32(0) // has_label
	writeI32(0) // n_missing
	writeI32(0)
	writeI32(0)
	buf.WriteString("SEX     ")

	writeI32(999)
	writeI32(0)

	d := mustDispatch(t, buf.Bytes())
	if len(d.LabelGroups) != 1 {
		t.Fatalf("expected 1 label group, got %d", len(d.LabelGroups))
	}
	g := d.LabelGroups[0]
	if len(g.RawValues) != 2 || g.Labels[0] != "Male" || g.Labels[1] != "Female" {
		t.Errorf("unexpected label group %+v", g)
	}
	if len(g.VarIndices) != 1 || g.VarIndices[0] != 1 {
		t.Errorf("VarIndices = %v, want [1]", g.VarIndices)
	}
}

func TestDispatchUnpairedTag4Fails(t *testing.T) {
	buf := &bytes.Buffer{}
	writeI32 := func(v int32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	writeI32(4) // tag 4 with no preceding tag 3
	writeI32(0)

	_, err := Dispatch(header.NewByteReader(bytes.NewReader(buf.Bytes())), nil)
	if model.CodeOf(err) != model.ErrProtocol {
		t.Fatalf("expected ErrProtocol, got %v", err)
	}
}

func TestDispatchTag3FollowedByUnrelatedRecordFails(t *testing.T) {
	buf := &bytes.Buffer{}
	writeI32 := func(v int32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	writeU32 := func(v uint32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, v)
		buf.Write(tmp)
	}

	writeI32(3)  // tag 3
	writeU32(0) // n_labels: 0, so no value/label pairs follow

	writeI32(6) // tag 6 interposed before the tag-3's tag-4 ever arrives
	writeI32(0) // n_lines: 0

	_, err := Dispatch(header.NewByteReader(bytes.NewReader(buf.Bytes())), nil)
	if model.CodeOf(err) != model.ErrProtocol {
		t.Fatalf("expected ErrProtocol for tag 6 interposed between tag 3 and tag 4, got %v", err)
	}
}

func TestDispatchSecondTag3BeforeFirstTag4Fails(t *testing.T) {
	buf := &bytes.Buffer{}
	writeI32 := func(v int32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	writeU32 := func(v uint32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, v)
		buf.Write(tmp)
	}

	writeI32(3)  // first tag 3
	writeU32(0) // n_labels: 0

	writeI32(3)  // second tag 3, before the first's tag 4 arrived
	writeU32(0) // n_labels: 0

	_, err := Dispatch(header.NewByteReader(bytes.NewReader(buf.Bytes())), nil)
	if model.CodeOf(err) != model.ErrProtocol {
		t.Fatalf("expected ErrProtocol for a second tag 3 before the first's tag 4, got %v", err)
	}
}

func TestDispatchUnknownTagFails(t *testing.T) {
	buf := &bytes.Buffer{}
	writeI32 := func(v int32) {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	writeI32(42)

	_, err := Dispatch(header.NewByteReader(bytes.NewReader(buf.Bytes())), nil)
	if model.CodeOf(err) != model.ErrUnknownRecord {
		t.Fatalf("expected ErrUnknownRecord, got %v", err)
	}
}

func TestParseMrSetLineDichotomy(t *testing.T) {
	set, ok := parseMrSetLine("$AD6=D1 1 16 AD6. QC Autofill ad6r1 ad6r2 ad6r3")
	if !ok {
		t.Fatal("parseMrSetLine returned false")
	}
	if set.Name != "AD6" || set.Kind != model.MrDichotomy || set.CountedValue != "1" {
		t.Errorf("unexpected set header: %+v", set)
	}
	if set.Label != "AD6. QC Autofill" {
		t.Errorf("Label = %q", set.Label)
	}
	want := []string{"ad6r1", "ad6r2", "ad6r3"}
	if len(set.VarNames) != len(want) {
		t.Fatalf("VarNames = %v, want %v", set.VarNames, want)
	}
	for i, w := range want {
		if set.VarNames[i] != w {
			t.Errorf("VarNames[%d] = %q, want %q", i, set.VarNames[i], w)
		}
	}
}

func TestParseMrSetLineCategory(t *testing.T) {
	set, ok := parseMrSetLine("$colors=C 15 Favorite Colors RED GREEN BLUE")
	if !ok {
		t.Fatal("parseMrSetLine returned false")
	}
	if set.Kind != model.MrCategory || set.CountedValue != "" {
		t.Errorf("unexpected set: %+v", set)
	}
	if set.Label != "Favorite Colors" {
		t.Errorf("Label = %q", set.Label)
	}
}

func TestParseLongVarNames(t *testing.T) {
	got := parseLongVarNames("Q1=Question1\tQ2=Question_Two\tAGE=RespondentAge\t")
	want := map[string]string{"Q1": "Question1", "Q2": "Question_Two", "AGE": "RespondentAge"}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("parseLongVarNames[%q] = %q, want %q", k, got[k], v)
		}
	}
}

func TestParseVeryLongStrings(t *testing.T) {
	got := parseVeryLongStrings("LONGVAR1=500\x00\tLONGVAR2=1000\x00\t")
	if got["LONGVAR1"] != 500 || got["LONGVAR2"] != 1000 {
		t.Errorf("unexpected widths %v", got)
	}
}

func TestVarDisplayWithAndWithoutWidth(t *testing.T) {
	// 2 entries * 3 ints each = 6 ints, divisible by 3 -> has width.
	withWidth := decodeI32SliceLE([]int32{1, 10, 0, 2, 8, 1})
	triples := parseVarDisplay(withWidth, 6, false)
	if len(triples) != 2 || triples[0].DisplayWidth != 10 || triples[1].Alignment != 1 {
		t.Errorf("unexpected triples %+v", triples)
	}

	// 2 entries * 2 ints each = 4 ints, not divisible by 3 -> no width field.
	noWidth := decodeI32SliceLE([]int32{1, 0, 2, 1})
	triples2 := parseVarDisplay(noWidth, 4, false)
	if len(triples2) != 2 || triples2[0].DisplayWidth != 8 || triples2[1].Measure != 2 {
		t.Errorf("unexpected triples %+v", triples2)
	}
}

func decodeI32SliceLE(vals []int32) []byte {
	buf := &bytes.Buffer{}
	for _, v := range vals {
		tmp := make([]byte, 4)
		binary.LittleEndian.PutUint32(tmp, uint32(v))
		buf.Write(tmp)
	}
	return buf.Bytes()
}

func mustDispatch(t *testing.T, data []byte) *RawDictionary {
	t.Helper()
	d, err := Dispatch(header.NewByteReader(bytes.NewReader(data)), nil)
	if err != nil {
		t.Fatalf("Dispatch() error = %v", err)
	}
	return d
}
