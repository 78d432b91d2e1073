// Package codec decodes source images into pixel data and encodes pixel
// data into the target format.
package codec

import (
	"context"
	"image"
	"io"
)

// Decoder turns a source file into pixel data.
type Decoder interface {
	Decode(ctx context.Context, path string) (image.Image, error)
}

// Encoder writes pixel data to w at the given quality. Quality is passed
// through as-is; range handling belongs to the implementation.
type Encoder interface {
	Encode(w io.Writer, img image.Image, quality int) error
}
