// Package charset resolves the file's text encoding and re-decodes every
// raw-byte field that was held provisionally until that encoding was
// known.
package charset

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"

	"github.com/cyw0ng95/savreader/internal/model"
)

// codePageNames maps the IANA character codes carried in an integer-info
// record (subtype 3) to names htmlindex recognizes. SPSS writes a handful
// of Windows code pages far more often than anything else, so those are
// mapped directly; Select rejects any other non-zero code page.
var codePageNames = map[int32]string{
	1252: "windows-1252",
	1250: "windows-1250",
	1251: "windows-1251",
	1253: "windows-1253",
	1254: "windows-1254",
	1255: "windows-1255",
	1256: "windows-1256",
	1257: "windows-1257",
	1258: "windows-1258",
	65001: "utf-8",
	20127: "us-ascii",
	28591: "iso-8859-1",
}

// Select resolves the encoding name and decoder following a fixed
// priority: an explicit subtype-20 name beats a subtype-3 code page,
// which beats a windows-1252 fallback.
func Select(explicitName string, codePage int32) (string, encoding.Encoding, error) {
	explicitName = strings.TrimSpace(explicitName)
	if explicitName != "" {
		enc, err := htmlindex.Get(explicitName)
		if err != nil {
			return "", nil, model.Errorf(model.ErrBadEncoding, "unknown encoding name %q", explicitName)
		}
		return explicitName, enc, nil
	}

	if name, ok := codePageNames[codePage]; ok {
		enc, err := htmlindex.Get(name)
		if err == nil {
			return name, enc, nil
		}
	}
	if codePage != 0 {
		return "", nil, model.Errorf(model.ErrBadEncoding, "unrecognized character code page %d", codePage)
	}

	return "windows-1252", charmap.Windows1252, nil
}

// Decoder wraps a chosen encoding.Encoding and re-decodes raw byte slices
// with its lossy-replacement policy (malformed sequences become U+FFFD
// rather than failing the read, per the propagation policy).
type Decoder struct {
	Name string
	enc  encoding.Encoding
}

// NewDecoder builds a Decoder around a resolved name/encoding pair.
func NewDecoder(name string, enc encoding.Encoding) *Decoder {
	return &Decoder{Name: name, enc: enc}
}

// Decode converts raw bytes to a Go string using the resolved encoding,
// trimming trailing NUL and space padding the way fixed-width SPSS fields
// are conventionally stored.
func (d *Decoder) Decode(raw []byte) string {
	if len(raw) == 0 {
		return ""
	}
	out, err := d.enc.NewDecoder().Bytes(raw)
	if err != nil {
		out = raw
	}
	return strings.TrimRight(string(out), " \x00")
}

// DecodeExact is like Decode but preserves trailing whitespace, for fields
// (document lines) whose padding is already stripped at the byte level
// before this stage.
func (d *Decoder) DecodeExact(raw []byte) string {
	out, err := d.enc.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(out)
}
