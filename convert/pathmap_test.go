package convert

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPath(t *testing.T) {
	in := filepath.FromSlash("/photos/in")
	out := filepath.FromSlash("/photos/out")

	cases := []struct {
		name string
		src  string
		want string
	}{
		{"top level", "/photos/in/a.heic", "/photos/out/a.jpg"},
		{"upper case extension", "/photos/in/b.HEIC", "/photos/out/b.jpg"},
		{"nested", "/photos/in/2023/06/c.Heic", "/photos/out/2023/06/c.jpg"},
		{"dots in name", "/photos/in/trip.day1.heic", "/photos/out/trip.day1.jpg"},
		{"spaces", "/photos/in/My Album/IMG 0001.heic", "/photos/out/My Album/IMG 0001.jpg"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := MapPath(filepath.FromSlash(tc.src), in, out)
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tc.want), got)
		})
	}
}

func TestMapPath_PreservesRelativeComponent(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(t.TempDir(), "nested", "out")
	src := filepath.Join(in, "x", "y", "z.heic")

	dst, err := MapPath(src, in, out)
	require.NoError(t, err)

	srcRel, _ := filepath.Rel(in, src)
	dstRel, err := filepath.Rel(out, dst)
	require.NoError(t, err)
	assert.Equal(t, srcRel[:len(srcRel)-len(".heic")], dstRel[:len(dstRel)-len(".jpg")])
	assert.Equal(t, TargetExt, filepath.Ext(dst))
}

func TestMapPath_OutputInsideInput(t *testing.T) {
	in := filepath.FromSlash("/data")
	out := filepath.FromSlash("/data/converted")

	got, err := MapPath(filepath.FromSlash("/data/sub/a.heic"), in, out)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/data/converted/sub/a.jpg"), got)
}

func TestMapPath_OutsideRoot(t *testing.T) {
	in := filepath.FromSlash("/photos/in")
	out := filepath.FromSlash("/photos/out")

	for _, src := range []string{"/photos/other/a.heic", "/photos/in", "/photos/in-2/a.heic", "/a.heic"} {
		_, err := MapPath(filepath.FromSlash(src), in, out)
		var pathErr *PathError
		if assert.True(t, errors.As(err, &pathErr), "src %s", src) {
			assert.Equal(t, "path error", pathErr.Kind())
		}
	}
}
