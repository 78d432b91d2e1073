package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"strings"

	// Formats the decode command may emit on stdout.
	_ "image/jpeg"
	_ "image/png"
)

// ExecDecoder runs an external command that writes the decoded image to
// stdout in a format the image package can read.
type ExecDecoder struct {
	args         []string
	maxInputSize int64
}

// NewExecDecoder parses and validates command and checks that its binary
// is on PATH. A maxInputSize of zero disables the size guard.
func NewExecDecoder(command string, maxInputSize int64) (*ExecDecoder, error) {
	args, err := SplitCommand(command)
	if err != nil {
		return nil, err
	}
	if err := ValidateArgs(args); err != nil {
		return nil, err
	}
	if _, err := exec.LookPath(args[0]); err != nil {
		return nil, fmt.Errorf("decoder binary not found or not in PATH: %s", args[0])
	}
	return &ExecDecoder{args: args, maxInputSize: maxInputSize}, nil
}

// Decode executes the command for path and decodes its stdout.
func (d *ExecDecoder) Decode(ctx context.Context, path string) (image.Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if d.maxInputSize > 0 && info.Size() > d.maxInputSize {
		return nil, fmt.Errorf("input file size %d exceeds limit of %d bytes", info.Size(), d.maxInputSize)
	}

	args := expand(d.args, path)
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s failed: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("%s failed: %w", args[0], err)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("read %s output: %w", args[0], err)
	}
	return img, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
