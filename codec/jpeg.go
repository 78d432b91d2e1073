package codec

import (
	"image"
	"image/jpeg"
	"io"

	"github.com/nfnt/resize"
)

// JPEGEncoder writes baseline JPEG. Quality outside 1-100 is clamped by
// image/jpeg.
type JPEGEncoder struct {
	// MaxDimension bounds the longest edge in pixels. Zero keeps the
	// source size.
	MaxDimension uint
}

func (e JPEGEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	if e.MaxDimension > 0 {
		b := img.Bounds()
		if uint(b.Dx()) > e.MaxDimension || uint(b.Dy()) > e.MaxDimension {
			img = resize.Thumbnail(e.MaxDimension, e.MaxDimension, img, resize.Lanczos3)
		}
	}
	return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
}
