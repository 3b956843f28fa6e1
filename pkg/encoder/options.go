package encoder

import (
	"image/png"
	"io/fs"
)

// Option configures an Encoder.
type Option func(*options)

type options struct {
	assets      fs.FS
	compression png.CompressionLevel
}

func defaultOptions() *options {
	return &options{
		compression: png.DefaultCompression,
	}
}

// WithAssets sets the filesystem image layers resolve their refs against.
// Without it, any image layer fails with ErrAssetNotFound.
func WithAssets(fsys fs.FS) Option {
	return func(o *options) {
		o.assets = fsys
	}
}

// WithCompression sets the PNG compression level.
// Default: png.DefaultCompression.
func WithCompression(level png.CompressionLevel) Option {
	return func(o *options) {
		o.compression = level
	}
}
