package imagepkg

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"sync/atomic"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

var (
	red   = color.NRGBA{R: 0xE0, G: 0x20, B: 0x20, A: 0xFF}
	blue  = color.NRGBA{R: 0x20, G: 0x40, B: 0xE0, A: 0xFF}
	green = color.NRGBA{R: 0x10, G: 0xC0, B: 0x30, A: 0xFF}
)

func solid(w, h int, c color.Color) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// assetFS builds the 单镜头 fixtures of the built-in catalog.
func assetFS(t *testing.T) fstest.MapFS {
	t.Helper()
	fsys := fstest.MapFS{
		"底图/单镜头/底图.png": {Data: encodePNG(t, solid(200, 160, red))},
	}
	for _, file := range []string{"单镜头-金奖.png", "单镜头-银奖.png", "单镜头-铜奖.png", "单镜头-入围奖.png"} {
		fsys["底图/单镜头/"+file] = &fstest.MapFile{Data: encodePNG(t, solid(120, 220, blue))}
	}
	return fsys
}

// countingSource counts fetches and fails the first failFirst of them.
type countingSource struct {
	inner     Source
	failFirst int32
	calls     atomic.Int32
}

func (s *countingSource) Fetch(ctx context.Context, name string) ([]byte, error) {
	n := s.calls.Add(1)
	if n <= s.failFirst {
		return nil, errFlaky
	}
	return s.inner.Fetch(ctx, name)
}

var errFlaky = errors.New("flaky network")

// recordingStamper captures text stamping calls.
type recordingStamper struct {
	caption, name string
	calls         int
}

func (r *recordingStamper) Stamp(_ draw.Image, caption, name string) error {
	r.caption, r.name = caption, name
	r.calls++
	return nil
}
