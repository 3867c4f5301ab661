package guppi

type options struct {
	codec        Codec
	geometry     GeometryOptions
	blockPadding bool
}

// Option configures a Reader or Writer.
type Option func(*options)

func WithCodec(c Codec) Option {
	return func(o *options) {
		o.codec = c
	}
}

func WithGeometryOptions(g GeometryOptions) Option {
	return func(o *options) {
		o.geometry = g
	}
}

// WithBlockPadding pads (or expects padding after) each data block to the
// next 512 byte boundary when DIRECTIO is enabled.
func WithBlockPadding(enabled bool) Option {
	return func(o *options) {
		o.blockPadding = enabled
	}
}

func newOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
