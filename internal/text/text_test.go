package text

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

func TestSegments(t *testing.T) {
	tests := []struct {
		input string
		want  []Segment
	}{
		{"Ann", []Segment{{"Ann", Latin}}},
		{"AB测试CD", []Segment{{"AB", Latin}, {"测试", CJK}, {"CD", Latin}}},
		{"李雷", []Segment{{"李雷", CJK}}},
		{"李 雷", []Segment{{"李", CJK}, {"雷", CJK}}},
		{"Tom & Jerry 2", []Segment{{"Tom & Jerry 2", Latin}}},
		{"Ann 李雷", []Segment{{"Ann ", Latin}, {"李雷", CJK}}},
		{"李　雷", []Segment{{"李", CJK}, {"雷", CJK}}},
		{"", nil},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, Segments(tt.input))
		})
	}
}

func TestSegmentsRoundTrip(t *testing.T) {
	tests := map[string]string{
		"Ann":          "Ann",
		"AB测试CD":       "AB测试CD",
		"李 雷":          "李雷",
		"Ann 李 Bob":    "Ann 李 Bob",
		"陈 & 王 studio": "陈 & 王 studio",
		"  ":           "",
	}
	for input, want := range tests {
		var b strings.Builder
		for _, s := range Segments(input) {
			b.WriteString(s.Text)
		}
		assert.Equal(t, want, b.String(), "input %q", input)
	}
}

func TestSegmentsDeterministic(t *testing.T) {
	in := "Mix测试Name&Co"
	assert.Equal(t, Segments(in), Segments(in))
}

func TestClassify(t *testing.T) {
	for _, r := range "azAZ09& \t" {
		assert.Equal(t, Latin, Classify(r), "%q", r)
	}
	for _, r := range "李é!-·" {
		assert.Equal(t, CJK, Classify(r), "%q", r)
	}
}

func testStyles(t *testing.T) StyleFunc {
	t.Helper()
	latin, err := LoadTypeface("go:bold", 45)
	require.NoError(t, err)
	cjk, err := LoadTypeface("go:regular", 30)
	require.NoError(t, err)
	lf, err := latin.NewFace()
	require.NoError(t, err)
	cf, err := cjk.NewFace()
	require.NoError(t, err)
	t.Cleanup(func() {
		lf.Close()
		cf.Close()
	})
	return func(s Script) Style {
		if s == Latin {
			return Style{Face: lf, Color: color.White}
		}
		return Style{Face: cf, Color: color.White}
	}
}

func TestLayoutNameSingleScriptCentered(t *testing.T) {
	styleFor := testStyles(t)
	const cx = 400.0

	ps := LayoutName("Ann", cx, 100, styleFor)
	require.Len(t, ps, 1)
	p := ps[0]
	assert.Equal(t, "Ann", p.Text)
	assert.Equal(t, Latin, p.Script)
	assert.Greater(t, p.Width, 0.0)
	assert.InDelta(t, cx, p.X+p.Width/2, 1e-6)
	assert.InDelta(t, Measure(styleFor(Latin).Face, "Ann"), p.Width, 1e-9)
	assert.Equal(t, 100.0, p.Y)
}

func TestLayoutNameKeepsWholeSingleScriptText(t *testing.T) {
	ps := LayoutName("李 雷", 300, 50, testStyles(t))
	require.Len(t, ps, 1)
	assert.Equal(t, "李 雷", ps[0].Text)
	assert.Equal(t, CJK, ps[0].Script)
}

func TestLayoutNameMixed(t *testing.T) {
	styleFor := testStyles(t)
	const cx = 512.0

	ps := LayoutName("AB测试CD", cx, 80, styleFor)
	require.Len(t, ps, 3)
	assert.Equal(t, []string{"AB", "测试", "CD"}, []string{ps[0].Text, ps[1].Text, ps[2].Text})

	total := 0.0
	for i, p := range ps {
		assert.InDelta(t, Measure(styleFor(p.Script).Face, p.Text), p.Width, 1e-9)
		if i > 0 {
			prev := ps[i-1]
			assert.InDelta(t, prev.X+prev.Width, p.X, 1e-9, "segment %d must start where %d ends", i, i-1)
		}
		total += p.Width
	}
	left, right := Bounds(ps)
	assert.InDelta(t, total, right-left, 1e-6)
	assert.InDelta(t, cx, (left+right)/2, 1e-6)
}

func TestLayoutNameEmpty(t *testing.T) {
	assert.Nil(t, LayoutName("", 10, 10, testStyles(t)))
	assert.Nil(t, LayoutName("  ", 10, 10, testStyles(t)))
}

func TestFontChoiceAffectsWidth(t *testing.T) {
	small, err := LoadTypeface("go:regular", 12)
	require.NoError(t, err)
	big, err := LoadTypeface("go:regular", 48)
	require.NoError(t, err)
	sf, err := small.NewFace()
	require.NoError(t, err)
	bf, err := big.NewFace()
	require.NoError(t, err)

	assert.Less(t, Measure(sf, "Winner"), Measure(bf, "Winner"))
}

func TestLoadTypeface(t *testing.T) {
	_, err := LoadTypeface("go:italic", 10)
	assert.Error(t, err)

	_, err = LoadTypeface("go:bold", 0)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "custom.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0o644))
	tf, err := LoadTypeface(path, 20)
	require.NoError(t, err)
	assert.Equal(t, 20.0, tf.Size)

	bad := filepath.Join(t.TempDir(), "bad.ttf")
	require.NoError(t, os.WriteFile(bad, []byte("not a font"), 0o644))
	_, err = LoadTypeface(bad, 20)
	assert.Error(t, err)

	_, err = LoadTypeface(filepath.Join(t.TempDir(), "missing.otf"), 20)
	assert.Error(t, err)
}

func TestRendererStamp(t *testing.T) {
	r, err := DefaultRenderer()
	require.NoError(t, err)
	r.CaptionY = 60
	r.NameY = 160

	dst := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.Black), image.Point{}, draw.Src)

	require.NoError(t, r.Stamp(dst, "E01 Demo", "Ann"))

	caption := maxRed(dst, image.Rect(0, 30, 400, 70))
	assert.Greater(t, caption, uint8(0x80))
	assert.LessOrEqual(t, caption, uint8(0xD5))
	assert.Greater(t, maxRed(dst, image.Rect(0, 110, 400, 170)), uint8(0xD5))
	assert.Equal(t, uint8(0), maxRed(dst, image.Rect(0, 0, 400, 20)))
}

func TestRendererSkipsEmptyCaption(t *testing.T) {
	r, err := DefaultRenderer()
	require.NoError(t, err)
	r.CaptionY = 60
	r.NameY = 160

	dst := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	require.NoError(t, r.Stamp(dst, "", "Ann"))

	for y := 0; y < 100; y++ {
		for x := 0; x < 400; x++ {
			require.Equal(t, color.NRGBA{}, dst.NRGBAAt(x, y))
		}
	}
}

func maxRed(img *image.NRGBA, r image.Rectangle) uint8 {
	var m uint8
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if c := img.NRGBAAt(x, y); c.R > m {
				m = c.R
			}
		}
	}
	return m
}
