package guppi

import (
	"fmt"
	"io"
)

// Writer emits header/block units.
type Writer struct {
	w       io.Writer
	opts    options
	written int64
}

func NewWriter(w io.Writer, opts ...Option) *Writer {
	return &Writer{w: w, opts: newOptions(opts)}
}

// WriteUnit writes h followed by block. BLOCSIZE must match len(block).
func (w *Writer) WriteUnit(h *Header, block []byte) error {
	size, err := positiveField(h, KeyBlockSize)
	if err != nil {
		return err
	}
	if size != int64(len(block)) {
		return fmt.Errorf("%w: %s=%d but block holds %d bytes", ErrGeometry, KeyBlockSize, size, len(block))
	}
	hdr, err := w.opts.codec.GenerateHeader(h)
	if err != nil {
		return err
	}
	if err := w.write(hdr); err != nil {
		return err
	}
	if err := w.write(block); err != nil {
		return err
	}
	if w.opts.blockPadding && w.opts.codec.DirectIO.Enabled(h) {
		return w.write(make([]byte, AlignmentPadding(size)))
	}
	return nil
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 {
	return w.written
}

func (w *Writer) write(p []byte) error {
	n, err := w.w.Write(p)
	w.written += int64(n)
	return err
}
