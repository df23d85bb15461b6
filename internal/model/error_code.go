package model

import "fmt"

// ErrorCode is the closed taxonomy of failures a read can produce: every
// parser stage returns one of these, never a bare stdlib error, so callers
// can switch on Code rather than string-match.
type ErrorCode int32

const (
	ErrIO ErrorCode = iota + 1
	ErrUnexpectedEOF
	ErrBadMagic
	ErrUnsupportedCompression
	ErrUnknownRecord
	ErrProtocol
	ErrBadEncoding
	ErrUnknownVariable
)

var codeNames = map[ErrorCode]string{
	ErrIO:                     "IoError",
	ErrUnexpectedEOF:          "UnexpectedEof",
	ErrBadMagic:               "BadMagic",
	ErrUnsupportedCompression: "UnsupportedCompression",
	ErrUnknownRecord:          "UnknownRecord",
	ErrProtocol:               "ProtocolError",
	ErrBadEncoding:            "BadEncoding",
	ErrUnknownVariable:        "UnknownVariable",
}

// String renders the code's taxonomy name.
func (c ErrorCode) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("ErrorCode(%d)", int32(c))
}
