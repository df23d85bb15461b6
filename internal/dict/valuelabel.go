package dict

import (
	"github.com/cyw0ng95/savreader/internal/header"
	"github.com/cyw0ng95/savreader/internal/model"
)

// parseValueLabelRecord reads one tag-3 record: a table of raw
// 8-byte keys paired with Pascal-style label text. The numeric-vs-string
// interpretation of the keys is deferred to tag-4 resolution.
func parseValueLabelRecord(r *header.ByteReader) (*LabelGroup, error) {
	nLabels, err := r.ReadU32()
	if err != nil {
		return nil, err
	}

	group := &LabelGroup{
		RawValues: make([][8]byte, 0, nLabels),
		RawLabels: make([][]byte, 0, nLabels),
		Labels:    make([]string, 0, nLabels),
	}

	for i := uint32(0); i < nLabels; i++ {
		raw, err := r.ReadBytes(8)
		if err != nil {
			return nil, err
		}
		var key [8]byte
		copy(key[:], raw)

		labelLen, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		labelBytes, err := r.ReadBytes(int(labelLen))
		if err != nil {
			return nil, err
		}

		consumed := 1 + int(labelLen)
		if pad := padTo8(consumed); pad > 0 {
			if err := r.Skip(pad); err != nil {
				return nil, err
			}
		}

		group.RawValues = append(group.RawValues, key)
		group.RawLabels = append(group.RawLabels, labelBytes)
		group.Labels = append(group.Labels, latin1Provisional(labelBytes))
	}

	return group, nil
}

// parseVarIndexRecord reads one tag-4 record: n_vars followed by that many
// 1-based variable-record indices.
func parseVarIndexRecord(r *header.ByteReader) ([]int, error) {
	nVars, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	if nVars < 0 {
		return nil, model.Errorf(model.ErrProtocol, "tag 4 has negative var count %d", nVars)
	}
	indices := make([]int, nVars)
	for i := range indices {
		idx, err := r.ReadI32()
		if err != nil {
			return nil, err
		}
		indices[i] = int(idx)
	}
	return indices, nil
}

func padTo8(n int) int {
	if rem := n % 8; rem != 0 {
		return 8 - rem
	}
	return 0
}
