package ogevent

import "runtime"

// DefaultFrameThreshold is the FRAME length from which Collect decodes the
// frame on a separate worker. Smaller frames are decoded inline.
const DefaultFrameThreshold = 128 * 1024

// CollectConfig holds configuration for Collect and DecodeAll.
type CollectConfig struct {
	// FrameThreshold is the minimal FRAME length decoded out of line.
	// Negative value disables parallel decoding.
	FrameThreshold int64

	// Parallelism limits how many frames are decoded concurrently, and so
	// how many private frame copies are resident at once.
	Parallelism int

	// HeaderCheck makes DecodeAll require the `PROTO <version>` header.
	HeaderCheck bool

	// StrictUnicode is passed to DecoderConfig of the decoder DecodeAll creates.
	StrictUnicode bool
}

// Option is a functional option for configuring Collect and DecodeAll.
type Option func(*CollectConfig)

// DefaultCollectConfig returns the default configuration.
func DefaultCollectConfig() CollectConfig {
	return CollectConfig{
		FrameThreshold: DefaultFrameThreshold,
		Parallelism:    runtime.GOMAXPROCS(0),
	}
}

// WithFrameThreshold sets the FRAME length from which frames are decoded in
// parallel. Zero keeps the default; negative value decodes everything
// sequentially.
func WithFrameThreshold(n int64) Option {
	return func(c *CollectConfig) {
		if n != 0 {
			c.FrameThreshold = n
		}
	}
}

// WithParallelism sets how many frames may be decoded concurrently.
func WithParallelism(n int) Option {
	return func(c *CollectConfig) {
		if n > 0 {
			c.Parallelism = n
		}
	}
}

// WithHeaderCheck makes DecodeAll fail with ProtocolError on streams that do
// not start with a supported PROTO header.
func WithHeaderCheck() Option {
	return func(c *CollectConfig) {
		c.HeaderCheck = true
	}
}

// WithStrictUnicode makes DecodeAll validate UTF-8 of unicode payloads.
func WithStrictUnicode() Option {
	return func(c *CollectConfig) {
		c.StrictUnicode = true
	}
}

// ApplyOptions applies the given options to the default configuration.
func ApplyOptions(opts ...Option) CollectConfig {
	config := DefaultCollectConfig()
	for _, opt := range opts {
		opt(&config)
	}
	return config
}
