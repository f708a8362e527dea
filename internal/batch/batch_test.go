package batch

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/youruser/certapp/internal/award"
	"github.com/youruser/certapp/internal/catalog"
	imagepkg "github.com/youruser/certapp/internal/image"
	"github.com/youruser/certapp/internal/text"
)

// stubCompositor renders a 1px-wide image whose height encodes the call
// order and fails for names listed in fail.
type stubCompositor struct {
	calls []award.Record
	fail  map[string]error
}

func (s *stubCompositor) Render(_ context.Context, rec award.Record, _ int) (*image.NRGBA, error) {
	s.calls = append(s.calls, rec)
	if err := s.fail[rec.Name]; err != nil {
		return nil, err
	}
	return image.NewNRGBA(image.Rect(0, 0, 1, len(s.calls))), nil
}

func records(names ...string) []award.Record {
	out := make([]award.Record, len(names))
	for i, n := range names {
		out[i] = award.Record{Name: n, Tier: award.Gold, Category: "单镜头"}
	}
	return out
}

func TestRenderBatchOrder(t *testing.T) {
	comp := &stubCompositor{}
	r := NewRenderer(comp, catalog.Default(), nil, nil)

	imgs, err := r.RenderBatch(context.Background(), records("a", "b", "c"), 0)
	require.NoError(t, err)
	require.Len(t, imgs, 3)
	for i, img := range imgs {
		assert.Equal(t, i+1, img.Bounds().Dy())
	}
	assert.Equal(t, "a", comp.calls[0].Name)
	assert.Equal(t, "c", comp.calls[2].Name)
}

func TestRenderBatchEmpty(t *testing.T) {
	r := NewRenderer(&stubCompositor{}, catalog.Default(), nil, nil)

	_, err := r.RenderBatch(context.Background(), nil, 0)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	_, err = r.Preview(context.Background(), nil, 0, 0)
	assert.ErrorIs(t, err, ErrEmptyBatch)
	err = r.Export(context.Background(), nil, 0, func(File) error { return nil })
	assert.ErrorIs(t, err, ErrEmptyBatch)
}

func TestRenderBatchAbortsOnFirstError(t *testing.T) {
	boom := errors.New("boom")
	comp := &stubCompositor{fail: map[string]error{"b": boom}}
	r := NewRenderer(comp, catalog.Default(), nil, nil)

	imgs, err := r.RenderBatch(context.Background(), records("a", "b", "c"), 0)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, imgs)
	assert.Len(t, comp.calls, 2)
}

func TestExportAbortsWithoutPartialFile(t *testing.T) {
	boom := errors.New("boom")
	comp := &stubCompositor{fail: map[string]error{"b": boom}}
	r := NewRenderer(comp, catalog.Default(), nil, nil)

	var names []string
	err := r.Export(context.Background(), records("a", "b", "c"), 0, func(f File) error {
		names = append(names, f.Name)
		return nil
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"单镜头-金奖-a.png"}, names)
}

func TestPreviewIndex(t *testing.T) {
	comp := &stubCompositor{}
	r := NewRenderer(comp, catalog.Default(), nil, nil)

	_, err := r.Preview(context.Background(), records("a", "b"), 1, 0)
	require.NoError(t, err)
	require.Len(t, comp.calls, 1)
	assert.Equal(t, "b", comp.calls[0].Name)

	_, err = r.Preview(context.Background(), records("a", "b"), 2, 0)
	assert.Error(t, err)
}

func TestFileNamesKeepDuplicates(t *testing.T) {
	r := NewRenderer(&stubCompositor{}, catalog.Default(), nil, nil)

	files, err := r.ExportAll(context.Background(), records("Ann", "Ann"), 0)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, files[0].Name, files[1].Name)

	var buf bytes.Buffer
	require.NoError(t, WriteArchive(&buf, files, time.Now()))
	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "单镜头-金奖-Ann.png", zr.File[0].Name)
	assert.Equal(t, "单镜头-金奖-Ann.png", zr.File[1].Name)
}

func TestArchiveName(t *testing.T) {
	ts := time.UnixMilli(1700000000123)
	assert.Equal(t, "VIDEO_BATTLE证书-单镜头-1700000000123.zip", ArchiveName("VIDEO_BATTLE证书", "单镜头", ts))
}

func solidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEndToEndScenario(t *testing.T) {
	fsys := fstest.MapFS{
		"底图/单镜头/底图.png":      {Data: solidPNG(t, 300, 1200, color.NRGBA{R: 0x30, A: 0xFF})},
		"底图/单镜头/单镜头-金奖.png": {Data: solidPNG(t, 100, 100, color.NRGBA{R: 0xFF, G: 0xD7, A: 0xFF})},
		"底图/单镜头/单镜头-银奖.png": {Data: solidPNG(t, 100, 100, color.NRGBA{R: 0xC0, G: 0xC0, B: 0xC0, A: 0xFF})},
	}
	cat := catalog.Default()
	tr, err := text.DefaultRenderer()
	require.NoError(t, err)
	comp := imagepkg.NewCompositor(cat,
		imagepkg.NewLoader(imagepkg.NewFSSource(fsys), imagepkg.WithBackoff(0)),
		imagepkg.NewCache(nil), tr)

	recs := award.Collect(map[award.Tier]string{
		award.Gold:   "Ann",
		award.Silver: "李雷",
	}, "单镜头", "E01", "Demo")
	require.Len(t, recs, 2)

	assets, err := comp.Resolve(recs[0])
	require.NoError(t, err)
	assert.Equal(t, "底图/单镜头/底图.png", assets.Base)
	assert.Equal(t, "底图/单镜头/单镜头-金奖.png", assets.Overlay)
	assert.Equal(t, []text.Segment{{Text: "Ann", Script: text.Latin}}, text.Segments(recs[0].Name))

	assets, err = comp.Resolve(recs[1])
	require.NoError(t, err)
	assert.Equal(t, "底图/单镜头/单镜头-银奖.png", assets.Overlay)
	assert.Equal(t, []text.Segment{{Text: "李雷", Script: text.CJK}}, text.Segments(recs[1].Name))

	r := NewRenderer(comp, cat, nil, nil)
	files, err := r.ExportAll(context.Background(), recs, 30)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "单镜头-金奖-Ann.png", files[0].Name)
	assert.Equal(t, "单镜头-银奖-李雷.png", files[1].Name)

	img, err := png.Decode(bytes.NewReader(files[0].Data))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 300, 1200), img.Bounds())
}
