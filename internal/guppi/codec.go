package guppi

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const KeyDirectIO = "DIRECTIO"

// DirectIOPolicy decides whether a header's DIRECTIO field turns on 512
// byte alignment. A codec applies the same policy when parsing and when
// generating so that both directions agree on the padding.
type DirectIOPolicy int

const (
	// DirectIOStrict enables alignment when the value is numerically 1.
	DirectIOStrict DirectIOPolicy = iota
	// DirectIOContains enables alignment when the value text contains "1".
	// It accepts values such as "10" and exists for captures written by
	// tools that relied on that behaviour.
	DirectIOContains
)

func ParseDirectIOPolicy(s string) (DirectIOPolicy, error) {
	switch strings.ToLower(s) {
	case "", "strict":
		return DirectIOStrict, nil
	case "contains":
		return DirectIOContains, nil
	}
	return DirectIOStrict, fmt.Errorf("unknown DIRECTIO policy %q", s)
}

func (p DirectIOPolicy) String() string {
	if p == DirectIOContains {
		return "contains"
	}
	return "strict"
}

// Enabled reports whether h asks for DIRECTIO alignment under p.
func (p DirectIOPolicy) Enabled(h *Header) bool {
	v, ok := h.Get(KeyDirectIO)
	if !ok {
		return false
	}
	if p == DirectIOContains {
		return strings.Contains(v.String(), "1")
	}
	f, ok := v.Float()
	return ok && f == 1
}

// Codec parses and generates GUPPI headers.
type Codec struct {
	DirectIO DirectIOPolicy
}

// DefaultCodec uses the strict DIRECTIO policy.
var DefaultCodec = Codec{}

// ParsedHeader is the result of parsing one header.
type ParsedHeader struct {
	Fields *Header
	// Text is every record, terminator included, each followed by a newline.
	Text string
	// Length is the header size in bytes without alignment padding.
	Length int64
	// Padding is the number of alignment bytes consumed after the terminator.
	Padding int64
}

// Size returns the bytes of stream the header occupied.
func (p *ParsedHeader) Size() int64 {
	return p.Length + p.Padding
}

func ParseHeader(r io.Reader) (*ParsedHeader, error) {
	return DefaultCodec.ParseHeader(r)
}

func GenerateHeader(h *Header) ([]byte, error) {
	return DefaultCodec.GenerateHeader(h)
}

// ParseHeader reads records from r up to the END record and, when
// DIRECTIO is enabled, the alignment padding that follows it.
func (c Codec) ParseHeader(r io.Reader) (*ParsedHeader, error) {
	scanner := NewRecordScanner(r)
	fields := NewHeader()
	var text strings.Builder
	for !scanner.Done() {
		rec, err := scanner.Next()
		if err != nil {
			return nil, err
		}
		text.WriteString(rec)
		text.WriteByte('\n')
		if IsTerminator(rec) {
			break
		}
		key, value, ok := splitRecord(rec)
		if !ok {
			return nil, fmt.Errorf("%w: record %d has no %q delimiter", ErrFormat, scanner.Records()-1, delimiter)
		}
		fields.Set(key, ParseValue(value))
	}

	parsed := &ParsedHeader{
		Fields: fields,
		Text:   text.String(),
		Length: int64(scanner.Records()) * RecordSize,
	}
	if c.DirectIO.Enabled(fields) {
		pad := AlignmentPadding(parsed.Length)
		if err := discard(r, pad); err != nil {
			return nil, fmt.Errorf("header padding: %w", err)
		}
		parsed.Padding = pad
	}
	return parsed, nil
}

// GenerateHeader encodes h as records followed by the END record and,
// when DIRECTIO is enabled, space padding up to the next 512 byte boundary.
func (c Codec) GenerateHeader(h *Header) ([]byte, error) {
	var err error
	h.Each(func(key string, v Value) {
		if err == nil {
			err = validateField(key, v)
		}
	})
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.Grow((h.Len() + 1) * RecordSize)
	h.Each(func(key string, v Value) {
		b.WriteString(padRight(key, KeySize))
		b.WriteString(delimiter)
		b.WriteString(v.render())
	})
	b.WriteString(padRight(terminator, RecordSize))
	if c.DirectIO.Enabled(h) {
		b.WriteString(strings.Repeat(" ", int(AlignmentPadding(int64(b.Len())))))
	}
	return []byte(b.String()), nil
}

func validateField(key string, v Value) error {
	switch {
	case key == "":
		return fmt.Errorf("%w: empty key", ErrValidation)
	case len(key) > KeySize:
		return fmt.Errorf("%w: key %q is longer than %d characters", ErrValidation, key, KeySize)
	case strings.TrimSpace(key) != key:
		return fmt.Errorf("%w: key %q has surrounding whitespace", ErrValidation, key)
	case strings.Contains(key, "="):
		return fmt.Errorf("%w: key %q contains '='", ErrValidation, key)
	case strings.HasPrefix(key, terminator):
		return fmt.Errorf("%w: key %q collides with the %s record", ErrValidation, key, terminator)
	case len(v.String()) > ValueSize:
		return fmt.Errorf("%w: value of %s is longer than %d characters", ErrValidation, key, ValueSize)
	}
	return nil
}

func discard(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	copied, err := io.CopyN(io.Discard, r, n)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	if copied < n {
		return fmt.Errorf("%w: %d of %d bytes: %w", ErrTruncatedInput, copied, n, io.ErrUnexpectedEOF)
	}
	return nil
}
