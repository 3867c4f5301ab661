package guppi

import "fmt"

const (
	KeyChannels      = "OBSNCHAN"
	KeyPolarizations = "NPOL"
	KeyBits          = "NBITS"
	KeyBlockSize     = "BLOCSIZE"
)

// GeometryOptions configures how polarizations map onto stored components.
type GeometryOptions struct {
	// ComponentsPerPolarization is 1 when NPOL already counts every stored
	// lane, or 2 when each polarization is stored as a real/imaginary pair.
	// Zero means 1.
	ComponentsPerPolarization int
}

func (o GeometryOptions) multiplier() int {
	if o.ComponentsPerPolarization == 0 {
		return 1
	}
	return o.ComponentsPerPolarization
}

// Geometry is the layout of one data block, derived from its header.
type Geometry struct {
	Channels                  int   `json:"channels"`
	Polarizations             int   `json:"polarizations"`
	ComponentsPerPolarization int   `json:"components_per_polarization"`
	Components                int   `json:"components"`
	BitWidth                  int   `json:"bit_width"`
	Samples                   int   `json:"samples"`
	BlockSize                 int64 `json:"block_size"`
}

// SampleBytes is the size of one sample: one byte per component.
func (g Geometry) SampleBytes() int {
	return g.Components
}

// ChannelBytes is the size of one channel's run of samples.
func (g Geometry) ChannelBytes() int64 {
	return int64(g.Samples) * int64(g.SampleBytes())
}

// ResolveGeometry derives the block layout from OBSNCHAN, NPOL, NBITS and
// BLOCSIZE. The block is OBSNCHAN x samples x components bytes whatever
// NBITS is; BitWidth only tells consumers how to unpack a sample.
func ResolveGeometry(h *Header, opts GeometryOptions) (Geometry, error) {
	var g Geometry
	mult := opts.multiplier()
	if mult != 1 && mult != 2 {
		return g, fmt.Errorf("%w: components per polarization must be 1 or 2, got %d", ErrGeometry, mult)
	}

	channels, err := positiveField(h, KeyChannels)
	if err != nil {
		return g, err
	}
	npol, err := positiveField(h, KeyPolarizations)
	if err != nil {
		return g, err
	}
	nbits, err := positiveField(h, KeyBits)
	if err != nil {
		return g, err
	}
	blocsize, err := positiveField(h, KeyBlockSize)
	if err != nil {
		return g, err
	}

	g = Geometry{
		Channels:                  int(channels),
		Polarizations:             int(npol),
		ComponentsPerPolarization: mult,
		Components:                int(npol) * mult,
		BitWidth:                  int(nbits),
		BlockSize:                 blocsize,
	}
	stride := channels * int64(g.Components)
	if blocsize%stride != 0 {
		return Geometry{}, fmt.Errorf("%w: %s=%d is not divisible by %d channels x %d components",
			ErrGeometry, KeyBlockSize, blocsize, g.Channels, g.Components)
	}
	g.Samples = int(blocsize / stride)
	return g, nil
}

func positiveField(h *Header, key string) (int64, error) {
	v, ok := h.Get(key)
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrGeometry, key)
	}
	n, ok := v.Int()
	if !ok {
		return 0, fmt.Errorf("%w: %s=%q is not an integer", ErrGeometry, key, v.String())
	}
	if n <= 0 {
		return 0, fmt.Errorf("%w: %s=%d must be positive", ErrGeometry, key, n)
	}
	return n, nil
}
