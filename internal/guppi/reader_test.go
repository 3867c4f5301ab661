package guppi

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitHeader(index int64, directio bool) *Header {
	h := NewHeader()
	h.SetString("TELESCOP", "'NenuFAR'")
	if directio {
		h.SetInt(KeyDirectIO, 1)
	}
	h.SetInt(KeyChannels, 2)
	h.SetInt(KeyPolarizations, 4)
	h.SetInt(KeyBits, 8)
	h.SetInt(KeyBlockSize, 16)
	h.SetInt("PKTIDX", index*16)
	return h
}

func writeUnits(t *testing.T, units int, directio bool, opts ...Option) []byte {
	var buf bytes.Buffer
	w := NewWriter(&buf, opts...)
	for i := 0; i < units; i++ {
		block := sequence(16)
		block[0] = byte(i)
		require.NoError(t, w.WriteUnit(unitHeader(int64(i), directio), block))
	}
	assert.Equal(t, int64(buf.Len()), w.Written())
	return buf.Bytes()
}

func TestReaderWalksUnits(t *testing.T) {
	for _, directio := range []bool{false, true} {
		stream := writeUnits(t, 3, directio)
		r := NewReader(bytes.NewReader(stream))
		assert.Equal(t, -1, r.Index())

		for i := 0; i < 3; i++ {
			parsed, err := r.Next()
			require.NoError(t, err)
			assert.Equal(t, i, r.Index())
			assert.True(t, unitHeader(int64(i), directio).Equal(parsed.Fields))

			view, err := r.ReadBlock()
			require.NoError(t, err)
			assert.Equal(t, int64(i), view.Int(0, 0, 0))
			assert.Equal(t, int64(15), view.Int(1, 1, 3))
		}
		_, err := r.Next()
		assert.Equal(t, io.EOF, err)
		assert.Equal(t, int64(len(stream)), r.Offset())
	}
}

func TestReaderSkipsUnreadBlocks(t *testing.T) {
	stream := writeUnits(t, 3, true)
	r := NewReader(bytes.NewReader(stream))

	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	require.NoError(t, r.SkipBlock())
	_, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, 2, r.Index())

	view, err := r.ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, int64(2), view.Int(0, 0, 0))
}

func TestReaderOrdering(t *testing.T) {
	stream := writeUnits(t, 1, false)
	r := NewReader(bytes.NewReader(stream))

	_, err := r.ReadBlock()
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	_, err = r.Geometry()
	assert.True(t, errors.Is(err, ErrOutOfOrder))

	_, err = r.Next()
	require.NoError(t, err)
	g, err := r.Geometry()
	require.NoError(t, err)
	assert.Equal(t, 2, g.Samples)
	_, err = r.ReadBlock()
	require.NoError(t, err)
	_, err = r.ReadBlock()
	assert.True(t, errors.Is(err, ErrOutOfOrder))
	assert.True(t, errors.Is(r.SkipBlock(), ErrOutOfOrder))
}

func TestReaderTruncatedBlock(t *testing.T) {
	stream := writeUnits(t, 1, false)
	r := NewReader(bytes.NewReader(stream[:len(stream)-3]))
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.ReadBlock()
	assert.True(t, errors.Is(err, ErrTruncatedInput))
}

func TestReaderOversizedBlockClaim(t *testing.T) {
	h := blockHeader(1, 1, 8, 1<<62)
	out, err := GenerateHeader(h)
	require.NoError(t, err)
	stream := append(out, sequence(10)...)

	r := NewReader(bytes.NewReader(stream))
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.ReadBlock()
	assert.True(t, errors.Is(err, ErrTruncatedInput), "got %v", err)
	assert.Equal(t, int64(len(stream)), r.Offset())
}

func TestReaderTruncatedHeader(t *testing.T) {
	stream := writeUnits(t, 2, false)
	r := NewReader(bytes.NewReader(stream[:len(stream)-3]))
	_, err := r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.ReadBlock()
	assert.True(t, errors.Is(err, ErrTruncatedInput))

	r = NewReader(bytes.NewReader(stream[:len(stream)-100]))
	_, err = r.Next()
	require.NoError(t, err)
	_, err = r.Next()
	assert.True(t, errors.Is(err, ErrTruncatedInput))
	assert.False(t, errors.Is(err, io.EOF))
}

func TestBlockPadding(t *testing.T) {
	stream := writeUnits(t, 2, true, WithBlockPadding(true))
	assert.Len(t, stream, 2*(1024+512))

	r := NewReader(bytes.NewReader(stream), WithBlockPadding(true))
	for i := 0; i < 2; i++ {
		_, err := r.Next()
		require.NoError(t, err)
		view, err := r.ReadBlock()
		require.NoError(t, err)
		assert.Equal(t, int64(i), view.Int(0, 0, 0))
	}
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)

	// Without padding the block is followed directly by the next header.
	stream = writeUnits(t, 2, true)
	assert.Len(t, stream, 2*(1024+16))
}

func TestReaderGeometryOptions(t *testing.T) {
	stream := writeUnits(t, 1, false)
	r := NewReader(bytes.NewReader(stream), WithGeometryOptions(GeometryOptions{ComponentsPerPolarization: 2}))
	_, err := r.Next()
	require.NoError(t, err)
	view, err := r.ReadBlock()
	require.NoError(t, err)
	assert.Equal(t, 8, view.Components())
	assert.Equal(t, 1, view.Samples())
}

func TestWriterRejectsMismatchedBlock(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	err := w.WriteUnit(unitHeader(0, false), sequence(15))
	assert.True(t, errors.Is(err, ErrGeometry))

	h := unitHeader(0, false)
	h.Delete(KeyBlockSize)
	err = w.WriteUnit(h, sequence(16))
	assert.True(t, errors.Is(err, ErrGeometry))
	assert.Zero(t, buf.Len())
}
