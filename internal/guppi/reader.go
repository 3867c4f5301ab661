package guppi

import (
	"bytes"
	"errors"
	"fmt"
	"io"
)

// Reader walks a stream of header/block units in order.
type Reader struct {
	r       io.Reader
	opts    options
	index   int
	offset  int64
	current *ParsedHeader
	pending bool
}

func NewReader(r io.Reader, opts ...Option) *Reader {
	return &Reader{r: r, opts: newOptions(opts), index: -1}
}

// Next parses the next header, skipping the previous unit's block if it was
// not consumed. It returns io.EOF when the stream ends on a unit boundary.
func (r *Reader) Next() (*ParsedHeader, error) {
	if r.pending {
		if err := r.SkipBlock(); err != nil {
			return nil, err
		}
	}
	r.current = nil
	parsed, err := r.opts.codec.ParseHeader(r.r)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}
		return nil, fmt.Errorf("unit %d: %w", r.index+1, err)
	}
	r.index++
	r.offset += parsed.Size()
	r.current = parsed
	r.pending = true
	return parsed, nil
}

// Index is the zero-based index of the current unit, -1 before the first.
func (r *Reader) Index() int {
	return r.index
}

// Offset is the number of stream bytes consumed so far.
func (r *Reader) Offset() int64 {
	return r.offset
}

// Header returns the current unit's header, or nil.
func (r *Reader) Header() *ParsedHeader {
	return r.current
}

func (r *Reader) Geometry() (Geometry, error) {
	if r.current == nil {
		return Geometry{}, fmt.Errorf("%w: no current header", ErrOutOfOrder)
	}
	return ResolveGeometry(r.current.Fields, r.opts.geometry)
}

// ReadBlock reads and decodes the current unit's block.
func (r *Reader) ReadBlock() (*View, error) {
	if !r.pending {
		return nil, fmt.Errorf("%w: unit %d has no unread block", ErrOutOfOrder, r.index)
	}
	g, err := ResolveGeometry(r.current.Fields, r.opts.geometry)
	if err != nil {
		return nil, fmt.Errorf("unit %d: %w", r.index, err)
	}
	// BLOCSIZE comes from the stream, so the buffer only grows with the
	// bytes actually read.
	var buf bytes.Buffer
	n, err := io.CopyN(&buf, r.r, g.BlockSize)
	r.offset += n
	if err != nil {
		r.pending = false
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: unit %d block ended after %d of %d bytes: %w", ErrTruncatedInput, r.index, n, g.BlockSize, io.ErrUnexpectedEOF)
		}
		return nil, err
	}
	if err := r.finishBlock(g.BlockSize); err != nil {
		return nil, err
	}
	return DecodeBlock(buf.Bytes(), g)
}

// SkipBlock advances past the current unit's block without decoding it.
func (r *Reader) SkipBlock() error {
	if !r.pending {
		return fmt.Errorf("%w: unit %d has no unread block", ErrOutOfOrder, r.index)
	}
	n, err := SkipBlock(r.r, r.current.Fields)
	r.offset += n
	if err != nil {
		if n > 0 {
			r.pending = false
		}
		return fmt.Errorf("unit %d: %w", r.index, err)
	}
	return r.finishBlock(n)
}

func (r *Reader) finishBlock(size int64) error {
	r.pending = false
	if !r.opts.blockPadding || !r.opts.codec.DirectIO.Enabled(r.current.Fields) {
		return nil
	}
	pad := AlignmentPadding(size)
	if err := discard(r.r, pad); err != nil {
		return fmt.Errorf("unit %d block padding: %w", r.index, err)
	}
	r.offset += pad
	return nil
}
