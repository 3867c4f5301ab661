package guppi

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

const (
	RecordSize = 80
	KeySize    = 8
	ValueSize  = 70

	delimiter  = "= "
	terminator = "END"
)

// RecordScanner reads fixed size header records up to and including the
// END record.
type RecordScanner struct {
	r    io.Reader
	buf  [RecordSize]byte
	n    int
	done bool
}

func NewRecordScanner(r io.Reader) *RecordScanner {
	return &RecordScanner{r: r}
}

// Next returns the next record. Once the terminator has been returned Next
// reports io.EOF without touching the stream.
func (s *RecordScanner) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	if _, err := io.ReadFull(s.r, s.buf[:]); err != nil {
		switch {
		case errors.Is(err, io.EOF) && s.n == 0:
			return "", fmt.Errorf("%w: no header record: %w", ErrTruncatedInput, io.EOF)
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
			return "", fmt.Errorf("%w: header record %d: %w", ErrTruncatedInput, s.n, io.ErrUnexpectedEOF)
		default:
			return "", err
		}
	}
	s.n++
	rec := string(s.buf[:])
	if IsTerminator(rec) {
		s.done = true
	}
	return rec, nil
}

// Records returns how many records have been read.
func (s *RecordScanner) Records() int {
	return s.n
}

// Done reports whether the terminator has been read.
func (s *RecordScanner) Done() bool {
	return s.done
}

func IsTerminator(rec string) bool {
	return strings.HasPrefix(rec, terminator)
}

// splitRecord splits a field record on the first delimiter and trims both
// halves.
func splitRecord(rec string) (string, string, bool) {
	key, value, ok := strings.Cut(rec, delimiter)
	if !ok {
		return "", "", false
	}
	return strings.TrimSpace(key), strings.TrimSpace(value), true
}
