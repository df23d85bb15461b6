package rowio

import (
	"github.com/cyw0ng95/savreader/internal/compress"
	"github.com/cyw0ng95/savreader/internal/header"
)

// rawSlotSource adapts an uncompressed data section to the same
// slot-at-a-time interface the bytecode decompressor exposes, so the row
// reader never needs to know whether the source file carried
// compression_code 0 (none).
type rawSlotSource struct {
	r *header.ByteReader
}

// NewRawSlotSource wraps r (positioned at the first byte of row data) for
// an uncompressed sav file.
func NewRawSlotSource(r *header.ByteReader) slotSource {
	return &rawSlotSource{r: r}
}

func (s *rawSlotSource) Next() (compress.Slot, error) {
	raw, ok, err := s.r.TryReadBytes(8)
	if err != nil {
		return compress.Slot{}, err
	}
	if !ok {
		return compress.Slot{Kind: compress.SlotEOF}, nil
	}
	var arr [8]byte
	copy(arr[:], raw)
	return compress.Slot{Kind: compress.SlotRaw, Raw: arr}, nil
}
