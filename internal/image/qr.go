package imagepkg

import (
	"image"

	"github.com/disintegration/imaging"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/youruser/certapp/internal/award"
)

// Stamp draws a verification QR code in the bottom-right corner of a
// certificate. The code encodes Prefix followed by category/tier/name.
type Stamp struct {
	Size   int
	Margin int
	Prefix string
}

// Content is the text encoded for rec.
func (s *Stamp) Content(rec award.Record) string {
	return s.Prefix + rec.Category + "/" + string(rec.Tier) + "/" + rec.Name
}

// Draw overlays the QR code for rec onto dst.
func (s *Stamp) Draw(dst *image.NRGBA, rec award.Record) (*image.NRGBA, error) {
	q, err := GenerateQRImage(s.Content(rec), s.Size)
	if err != nil {
		return nil, err
	}
	b, qb := dst.Bounds(), q.Bounds()
	pos := image.Pt(b.Max.X-s.Margin-qb.Dx(), b.Max.Y-s.Margin-qb.Dy())
	return imaging.Overlay(dst, q, pos, 1.0), nil
}

// GenerateQRImage returns a borderless QR code image for text.
func GenerateQRImage(text string, size int) (image.Image, error) {
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.Image(size), nil
}
