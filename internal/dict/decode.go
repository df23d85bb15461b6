package dict

import (
	"encoding/binary"
	"math"
)

func littleOrBig(bigEndian bool) binary.ByteOrder {
	if bigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

func bitsToFloat(bits uint64) float64 {
	return math.Float64frombits(bits)
}

// decodeI32Slice reinterprets payload as a sequence of 4-byte integers in
// the given byte order.
func decodeI32Slice(payload []byte, bigEndian bool) []int32 {
	order := littleOrBig(bigEndian)
	n := len(payload) / 4
	out := make([]int32, n)
	for i := 0; i < n; i++ {
		out[i] = int32(order.Uint32(payload[i*4 : i*4+4]))
	}
	return out
}
