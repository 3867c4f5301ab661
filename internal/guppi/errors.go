package guppi

import "errors"

var (
	// ErrTruncatedInput is returned when the stream ends inside a record,
	// a padding run or a data block.
	ErrTruncatedInput = errors.New("guppi: truncated input")
	// ErrFormat is returned for a header record without a key/value delimiter.
	ErrFormat = errors.New("guppi: malformed header record")
	// ErrValidation is returned when a header cannot be encoded.
	ErrValidation = errors.New("guppi: invalid header field")
	// ErrGeometry is returned when header fields do not describe a usable block layout.
	ErrGeometry = errors.New("guppi: bad block geometry")
	// ErrOutOfOrder is returned when a block is requested before its header.
	ErrOutOfOrder = errors.New("guppi: block requested out of order")
)
