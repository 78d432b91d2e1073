// Package convert maps, discovers and converts individual source files.
package convert

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"

	"heic2jpg/codec"
	"heic2jpg/task"
)

// Converter is the per-file conversion step. It is safe for concurrent use
// as long as its Decoder and Encoder are.
type Converter struct {
	InputRoot  string
	OutputRoot string
	Quality    int
	Decoder    codec.Decoder
	Encoder    codec.Encoder
	Throttle   *codec.Throttle // optional
}

// Convert maps src to its destination, creates the destination directory,
// decodes src and encodes it over the destination. Every failure, panics
// in the codec included, is returned as a failed Outcome.
func (c *Converter) Convert(ctx context.Context, src string) task.Outcome {
	dst, err := c.convert(ctx, src)
	if err != nil {
		return task.Failed(src, err)
	}
	return task.Succeeded(src, dst)
}

func (c *Converter) convert(ctx context.Context, src string) (string, error) {
	dst, err := MapPath(src, c.InputRoot, c.OutputRoot)
	if err != nil {
		return "", err
	}

	// MkdirAll tolerates directories created concurrently by sibling tasks.
	dir := filepath.Dir(dst)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}

	if err := c.Throttle.Check(dir); err != nil {
		return "", &ResourceError{Err: err}
	}

	var img image.Image
	err = guard("decode", src, func() error {
		var derr error
		img, derr = c.Decoder.Decode(ctx, src)
		return derr
	})
	if err != nil {
		return "", err
	}

	f, err := os.Create(dst)
	if err != nil {
		return "", &FilesystemError{Op: "create", Path: dst, Err: err}
	}
	err = guard("encode", src, func() error {
		return c.Encoder.Encode(f, img, c.Quality)
	})
	if err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", &FilesystemError{Op: "close", Path: dst, Err: err}
	}
	return dst, nil
}

// guard runs a codec call, turning both returned errors and panics into a
// *CodecError.
func guard(op, src string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &CodecError{Op: op, Source: src, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := fn(); err != nil {
		return &CodecError{Op: op, Source: src, Err: err}
	}
	return nil
}
