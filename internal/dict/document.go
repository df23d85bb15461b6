package dict

import (
	"bytes"

	"github.com/cyw0ng95/savreader/internal/header"
)

const documentLineWidth = 80

// parseDocumentRecord reads one tag-6 record: n_lines followed by
// n_lines*80 raw bytes, split into fixed 80-byte lines with trailing spaces
// trimmed. Decoding to Unicode happens later, once the file encoding is
// known.
func parseDocumentRecord(r *header.ByteReader) ([][]byte, error) {
	nLines, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	lines := make([][]byte, 0, nLines)
	for i := int32(0); i < nLines; i++ {
		raw, err := r.ReadBytes(documentLineWidth)
		if err != nil {
			return nil, err
		}
		lines = append(lines, bytes.TrimRight(raw, " "))
	}
	return lines, nil
}
