package guppi

import (
	"errors"
	"fmt"
	"io"
)

// View indexes a raw block as [channel][sample][component] bytes without
// copying it, the C-order reshape of the block. With NBITS=8 each
// component is one signed value; Unpack decodes other widths.
type View struct {
	geom Geometry
	data []byte
}

// DecodeBlock lays g over buf. buf must hold exactly one block.
func DecodeBlock(buf []byte, g Geometry) (*View, error) {
	if g.Channels <= 0 || g.Samples <= 0 || g.Components <= 0 {
		return nil, fmt.Errorf("%w: unresolved geometry %+v", ErrGeometry, g)
	}
	want := int64(g.Channels) * g.ChannelBytes()
	if int64(len(buf)) != want {
		return nil, fmt.Errorf("%w: block holds %d bytes, geometry needs %d", ErrGeometry, len(buf), want)
	}
	return &View{geom: g, data: buf}, nil
}

func (v *View) Geometry() Geometry {
	return v.geom
}

func (v *View) Channels() int {
	return v.geom.Channels
}

func (v *View) Samples() int {
	return v.geom.Samples
}

func (v *View) Components() int {
	return v.geom.Components
}

// Bytes returns the whole block.
func (v *View) Bytes() []byte {
	return v.data
}

// Channel returns the raw bytes of channel ch.
func (v *View) Channel(ch int) []byte {
	size := v.geom.ChannelBytes()
	start := int64(ch) * size
	return v.data[start : start+size]
}

// Sample returns the raw bytes of every component of sample s in channel ch.
func (v *View) Sample(ch, s int) []byte {
	size := v.geom.SampleBytes()
	start := s * size
	return v.Channel(ch)[start : start+size]
}

// Component returns the raw byte of one component.
func (v *View) Component(ch, s, c int) byte {
	return v.Sample(ch, s)[c]
}

// Int returns one component as a signed 8-bit value.
func (v *View) Int(ch, s, c int) int64 {
	return int64(int8(v.Component(ch, s, c)))
}

// ValuesPerSample is how many NBITS-wide values one sample holds.
func (v *View) ValuesPerSample() (int, error) {
	bits := v.geom.BitWidth
	switch bits {
	case 2, 4, 8, 16, 32, 64:
	default:
		return 0, fmt.Errorf("%w: cannot unpack %s=%d", ErrGeometry, KeyBits, bits)
	}
	sampleBits := 8 * v.geom.SampleBytes()
	if sampleBits%bits != 0 {
		return 0, fmt.Errorf("%w: %d byte sample does not hold whole %d bit values", ErrGeometry, v.geom.SampleBytes(), bits)
	}
	return sampleBits / bits, nil
}

// Unpack decodes sample s of channel ch as signed NBITS-wide values.
// Widths of a byte or more are little-endian; narrower values are packed
// most significant first within each byte.
func (v *View) Unpack(ch, s int) ([]int64, error) {
	n, err := v.ValuesPerSample()
	if err != nil {
		return nil, err
	}
	raw := v.Sample(ch, s)
	bits := v.geom.BitWidth
	out := make([]int64, n)
	if bits < 8 {
		perByte := 8 / bits
		shift := 64 - uint(bits)
		for i := range out {
			b := raw[i/perByte]
			pos := uint(8 - bits*(i%perByte+1))
			out[i] = int64(uint64(b>>pos)<<shift) >> shift
		}
		return out, nil
	}
	width := bits / 8
	shift := 64 - uint(bits)
	for i := range out {
		var u uint64
		for j := width - 1; j >= 0; j-- {
			u = u<<8 | uint64(raw[i*width+j])
		}
		out[i] = int64(u<<shift) >> shift
	}
	return out, nil
}

// SkipBlock advances r past the block described by h, one read of
// BLOCSIZE/OBSNCHAN bytes per channel. BLOCSIZE must divide evenly by
// OBSNCHAN; otherwise nothing is read.
func SkipBlock(r io.Reader, h *Header) (int64, error) {
	channels, err := positiveField(h, KeyChannels)
	if err != nil {
		return 0, err
	}
	blocsize, err := positiveField(h, KeyBlockSize)
	if err != nil {
		return 0, err
	}
	if blocsize%channels != 0 {
		return 0, fmt.Errorf("%w: %s=%d is not divisible by %s=%d", ErrGeometry, KeyBlockSize, blocsize, KeyChannels, channels)
	}
	chunk := blocsize / channels
	var skipped int64
	for ch := int64(0); ch < channels; ch++ {
		n, err := io.CopyN(io.Discard, r, chunk)
		skipped += n
		if err != nil && !errors.Is(err, io.EOF) {
			return skipped, err
		}
		if n < chunk {
			return skipped, fmt.Errorf("%w: block ended after %d of %d bytes: %w", ErrTruncatedInput, skipped, blocsize, io.ErrUnexpectedEOF)
		}
	}
	return skipped, nil
}
