package imagepkg

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// ColorTransform maps one non-premultiplied pixel to another.
type ColorTransform func(color.NRGBA) color.NRGBA

// Apply runs t over every pixel of img.
func (t ColorTransform) Apply(img image.Image) *image.NRGBA {
	return imaging.AdjustFunc(img, t)
}

// HueRotation rotates hue by degrees with the luminance-preserving matrix
// used by CSS hue-rotate(). Alpha is untouched.
func HueRotation(degrees int) ColorTransform {
	rad := float64(degrees) * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	m := [9]float64{
		0.213 + cos*0.787 - sin*0.213, 0.715 - cos*0.715 - sin*0.715, 0.072 - cos*0.072 + sin*0.928,
		0.213 - cos*0.213 + sin*0.143, 0.715 + cos*0.285 + sin*0.140, 0.072 - cos*0.072 - sin*0.283,
		0.213 - cos*0.213 - sin*0.787, 0.715 - cos*0.715 + sin*0.715, 0.072 + cos*0.928 + sin*0.072,
	}
	return func(c color.NRGBA) color.NRGBA {
		r, g, b := float64(c.R), float64(c.G), float64(c.B)
		return color.NRGBA{
			R: clamp8(m[0]*r + m[1]*g + m[2]*b),
			G: clamp8(m[3]*r + m[4]*g + m[5]*b),
			B: clamp8(m[6]*r + m[7]*g + m[8]*b),
			A: c.A,
		}
	}
}

// NormalizeHue clamps v into [0, 360].
func NormalizeHue(v int) int {
	return min(max(v, 0), 360)
}

func clamp8(v float64) uint8 {
	return uint8(math.Round(min(max(v, 0), 255)))
}
