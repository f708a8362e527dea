package text

import (
	"image"
	"image/color"
	"image/draw"
	"math"

	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// Style is the face and colour a run is drawn with.
type Style struct {
	Face  font.Face
	Color color.Color
}

// StyleFunc picks the style for a script.
type StyleFunc func(Script) Style

// Placement is a positioned run of text. X is the left edge of the run and
// Y its baseline.
type Placement struct {
	Text   string
	Script Script
	X, Y   float64
	Width  float64
	Style  Style
}

// Measure returns the advance width of s in face.
func Measure(face font.Face, s string) float64 {
	return float64(font.MeasureString(face, s)) / 64
}

// Centered places s as a single run centered on centerX.
func Centered(s string, script Script, centerX, baselineY float64, st Style) Placement {
	w := Measure(st.Face, s)
	return Placement{
		Text:   s,
		Script: script,
		X:      centerX - w/2,
		Y:      baselineY,
		Width:  w,
		Style:  st,
	}
}

// Layout places segments left to right so the whole block is centered on
// centerX. Each segment is measured with its own style's face.
func Layout(segs []Segment, centerX, baselineY float64, styleFor StyleFunc) []Placement {
	out := make([]Placement, len(segs))
	total := 0.0
	for i, seg := range segs {
		st := styleFor(seg.Script)
		w := Measure(st.Face, seg.Text)
		out[i] = Placement{Text: seg.Text, Script: seg.Script, Y: baselineY, Width: w, Style: st}
		total += w
	}
	x := centerX - total/2
	for i := range out {
		out[i].X = x
		x += out[i].Width
	}
	return out
}

// LayoutName lays out a winner name. A name whose segments all share one
// script is drawn whole in that script's style; otherwise each segment is
// drawn in its own style and the block is centered.
func LayoutName(name string, centerX, baselineY float64, styleFor StyleFunc) []Placement {
	segs := Segments(name)
	if len(segs) == 0 {
		return nil
	}
	if s, ok := singleScript(segs); ok {
		return []Placement{Centered(name, s, centerX, baselineY, styleFor(s))}
	}
	return Layout(segs, centerX, baselineY, styleFor)
}

// Bounds returns the horizontal span covered by ps.
func Bounds(ps []Placement) (left, right float64) {
	if len(ps) == 0 {
		return 0, 0
	}
	left, right = ps[0].X, ps[0].X+ps[0].Width
	for _, p := range ps[1:] {
		left = math.Min(left, p.X)
		right = math.Max(right, p.X+p.Width)
	}
	return left, right
}

// Draw renders placements onto dst.
func Draw(dst draw.Image, ps []Placement) {
	for _, p := range ps {
		d := &font.Drawer{
			Dst:  dst,
			Src:  image.NewUniform(p.Style.Color),
			Face: p.Style.Face,
			Dot: fixed.Point26_6{
				X: fixed.Int26_6(math.Round(p.X * 64)),
				Y: fixed.Int26_6(math.Round(p.Y * 64)),
			},
		}
		d.DrawString(p.Text)
	}
}
