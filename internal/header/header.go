package header

import (
	"encoding/binary"

	"github.com/cyw0ng95/savreader/internal/model"
)

const (
	headerSize = 176

	magicSav  = "$FL2"
	magicZsav = "$FL3"
)

// Header is the parsed 176-byte file prelude. Strings are kept as
// raw bytes; they are decoded once the final character encoding is
// known, during dictionary resolution.
type Header struct {
	Magic           string
	ProductRaw      []byte
	LayoutCode      int32
	NominalCaseSize int32
	CompressionCode int32
	WeightIndex     int32
	NCases          int32 // -1 means unknown
	Bias            float64
	CreatedDateRaw  []byte
	CreatedTimeRaw  []byte
	FileLabelRaw    []byte

	BigEndian   bool
	Compression model.Compression
	FileFormat  string // "sav" or "zsav"
}

// Parse consumes exactly 176 bytes from r (which must not yet have had any
// endianness selected) and returns the decoded header.
func Parse(r *ByteReader) (*Header, error) {
	magicBytes, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	magic := string(magicBytes)
	if magic != magicSav && magic != magicZsav {
		return nil, model.Errorf(model.ErrBadMagic, "unrecognized magic %q", magic)
	}

	product, err := r.ReadBytes(60)
	if err != nil {
		return nil, err
	}

	layoutRaw, err := r.ReadBytes(4)
	if err != nil {
		return nil, err
	}
	bigEndian, layoutCode, err := decideEndianness(layoutRaw)
	if err != nil {
		return nil, err
	}
	r.SetBigEndian(bigEndian)

	nominalCaseSize, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	compressionCode, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	weightIndex, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	nCases, err := r.ReadI32()
	if err != nil {
		return nil, err
	}
	bias, err := r.ReadF64LE()
	if err != nil {
		return nil, err
	}
	createdDate, err := r.ReadBytes(9)
	if err != nil {
		return nil, err
	}
	createdTime, err := r.ReadBytes(8)
	if err != nil {
		return nil, err
	}
	fileLabel, err := r.ReadBytes(64)
	if err != nil {
		return nil, err
	}
	if err := r.Skip(3); err != nil {
		return nil, err
	}

	compression, err := decodeCompression(compressionCode)
	if err != nil {
		return nil, err
	}

	fileFormat := "sav"
	if compression == model.CompressionZlib {
		fileFormat = "zsav"
		if magic != magicZsav {
			return nil, model.Errorf(model.ErrProtocol, "zlib compression requires %q magic, got %q", magicZsav, magic)
		}
	}

	return &Header{
		Magic:           magic,
		ProductRaw:      product,
		LayoutCode:      layoutCode,
		NominalCaseSize: nominalCaseSize,
		CompressionCode: compressionCode,
		WeightIndex:     weightIndex,
		NCases:          nCases,
		Bias:            bias,
		CreatedDateRaw:  createdDate,
		CreatedTimeRaw:  createdTime,
		FileLabelRaw:    fileLabel,
		BigEndian:       bigEndian,
		Compression:     compression,
		FileFormat:      fileFormat,
	}, nil
}

// decideEndianness interprets the 4 raw layout_code bytes as a little-endian
// int32 first; if that is 2 or 3, little-endian is adopted. Otherwise the
// same bytes are reinterpreted as big-endian; if that yields 2 or 3,
// big-endian is adopted. Any other outcome is BadMagic.
func decideEndianness(raw []byte) (bigEndian bool, layoutCode int32, err error) {
	asLE := int32(binary.LittleEndian.Uint32(raw))
	if asLE == 2 || asLE == 3 {
		return false, asLE, nil
	}
	asBE := int32(binary.BigEndian.Uint32(raw))
	if asBE == 2 || asBE == 3 {
		return true, asBE, nil
	}
	return false, 0, model.Errorf(model.ErrBadMagic, "layout_code decodes to neither 2 nor 3 in either byte order")
}

func decodeCompression(code int32) (model.Compression, error) {
	switch code {
	case 0:
		return model.CompressionNone, nil
	case 1:
		return model.CompressionBytecode, nil
	case 2:
		return model.CompressionZlib, nil
	default:
		return 0, model.Errorf(model.ErrUnsupportedCompression, "unsupported compression code %d", code)
	}
}

// Size returns the fixed on-disk size of the header prelude.
func Size() int { return headerSize }
