// Package compress implements the two data-section decompressors: the
// stateful cross-row bytecode opcode machine, and the ZSAV zlib block
// envelope that feeds a virtual byte stream into it.
package compress

import (
	"io"

	"github.com/cyw0ng95/savreader/internal/model"
)

// SlotKind identifies which of the bytecode decompressor's five production
// shapes a Slot holds.
type SlotKind int

const (
	SlotNumeric SlotKind = iota
	SlotRaw
	SlotSpaces
	SlotSysmis
	SlotEOF
)

const (
	opSkip        = 0
	opRawFollows  = 253
	opEightSpaces = 254
	opSysmis      = 255
	opEndOfFile   = 252
)

// Slot is one decompressed 8-byte unit. For SlotNumeric and SlotSysmis the
// value is already a concrete float64 (no byte-order ambiguity: these are
// computed directly from the opcode, not read as raw bytes). For SlotRaw
// the 8 literal bytes are returned undecoded — opcode 253's payload may be
// either a numeric bit pattern (decode with the file's byte order) or raw
// string bytes (use as-is); only the row reader knows which.
type Slot struct {
	Kind    SlotKind
	Numeric float64
	Raw     [8]byte
}

// BytecodeDecompressor is the stateful opcode machine for compressed data
// records. Its control block state (the 8 current opcodes, the index into
// them, and the terminal flag) persists across calls to Next — callers
// must reuse one instance across an entire row sequence rather than
// constructing a fresh one per row, or control-block alignment silently
// drifts from row to row.
type BytecodeDecompressor struct {
	r            io.Reader
	bias         float64
	controlBlock [8]byte
	controlIdx   int // 0..8; 8 forces a fresh control block read
	eof          bool
}

// NewBytecodeDecompressor wraps r (the uncompressed — or zlib-inflated —
// byte stream) with the given header bias.
func NewBytecodeDecompressor(r io.Reader, bias float64) *BytecodeDecompressor {
	return &BytecodeDecompressor{r: r, bias: bias, controlIdx: 8}
}

// Next produces the next slot. Once eof has been observed, Next keeps
// returning a SlotEOF slot rather than erroring.
func (d *BytecodeDecompressor) Next() (Slot, error) {
	if d.eof {
		return Slot{Kind: SlotEOF}, nil
	}

	if d.controlIdx >= 8 {
		if err := d.fillControlBlock(); err != nil {
			return Slot{}, err
		}
		if d.eof {
			return Slot{Kind: SlotEOF}, nil
		}
	}

	code := d.controlBlock[d.controlIdx]
	d.controlIdx++

	switch {
	case code == opSkip:
		return d.Next()

	case code >= 1 && code <= 251:
		return Slot{Kind: SlotNumeric, Numeric: float64(code) - d.bias}, nil

	case code == opRawFollows:
		var raw [8]byte
		if _, err := io.ReadFull(d.r, raw[:]); err != nil {
			return Slot{}, wrapDecompressEOF(err)
		}
		return Slot{Kind: SlotRaw, Raw: raw}, nil

	case code == opEightSpaces:
		return Slot{Kind: SlotSpaces}, nil

	case code == opSysmis:
		return Slot{Kind: SlotSysmis, Numeric: model.Sysmis()}, nil

	case code == opEndOfFile:
		d.eof = true
		return Slot{Kind: SlotEOF}, nil

	default:
		return Slot{}, model.Errorf(model.ErrProtocol, "impossible bytecode opcode %d", code)
	}
}

// Eof reports whether the decompressor has observed the end-of-file
// opcode.
func (d *BytecodeDecompressor) Eof() bool { return d.eof }

func (d *BytecodeDecompressor) fillControlBlock() error {
	n, err := io.ReadFull(d.r, d.controlBlock[:])
	if err != nil {
		if err == io.EOF && n == 0 {
			d.eof = true
			return nil
		}
		return wrapDecompressEOF(err)
	}
	d.controlIdx = 0
	return nil
}

func wrapDecompressEOF(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return model.Wrap(model.ErrUnexpectedEOF, err, "bytecode stream ended mid-slot")
	}
	return model.Wrap(model.ErrIO, err, "bytecode stream read failed")
}
