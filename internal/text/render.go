package text

import (
	"fmt"
	"image/color"
	"image/draw"
)

// Renderer stamps the caption line (issue and theme) and the winner name
// line onto a certificate.
type Renderer struct {
	Caption      Typeface
	CaptionColor color.Color
	CaptionY     float64

	Latin     Typeface
	CJK       Typeface
	NameColor color.Color
	NameY     float64
}

// DefaultRenderer uses the built-in Go fonts: bold for Latin runs, medium
// for CJK runs, regular for the caption.
func DefaultRenderer() (*Renderer, error) {
	caption, err := LoadTypeface("go:regular", 22)
	if err != nil {
		return nil, err
	}
	latin, err := LoadTypeface("go:bold", 45)
	if err != nil {
		return nil, err
	}
	cjk, err := LoadTypeface("go:medium", 45)
	if err != nil {
		return nil, err
	}
	return &Renderer{
		Caption:      caption,
		CaptionColor: color.NRGBA{R: 0xD5, G: 0xD5, B: 0xD5, A: 0xFF},
		CaptionY:     700,
		Latin:        latin,
		CJK:          cjk,
		NameColor:    color.White,
		NameY:        1130,
	}, nil
}

// Stamp draws both lines centered on dst. An empty caption or name skips
// that line.
func (r *Renderer) Stamp(dst draw.Image, caption, name string) error {
	b := dst.Bounds()
	cx := float64(b.Min.X) + float64(b.Dx())/2

	if caption != "" {
		face, err := r.Caption.NewFace()
		if err != nil {
			return fmt.Errorf("caption face: %w", err)
		}
		defer face.Close()
		st := Style{Face: face, Color: r.CaptionColor}
		Draw(dst, []Placement{Centered(caption, Latin, cx, float64(b.Min.Y)+r.CaptionY, st)})
	}

	if name == "" {
		return nil
	}
	latin, err := r.Latin.NewFace()
	if err != nil {
		return fmt.Errorf("latin face: %w", err)
	}
	defer latin.Close()
	cjk, err := r.CJK.NewFace()
	if err != nil {
		return fmt.Errorf("cjk face: %w", err)
	}
	defer cjk.Close()

	styleFor := func(s Script) Style {
		if s == Latin {
			return Style{Face: latin, Color: r.NameColor}
		}
		return Style{Face: cjk, Color: r.NameColor}
	}
	Draw(dst, LayoutName(name, cx, float64(b.Min.Y)+r.NameY, styleFor))
	return nil
}
