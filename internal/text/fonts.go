package text

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	sfntconv "github.com/tdewolff/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomedium"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// builtin fonts addressable as "go:<name>" in configuration.
var builtin = map[string][]byte{
	"go:regular": goregular.TTF,
	"go:medium":  gomedium.TTF,
	"go:bold":    gobold.TTF,
}

// Typeface is a parsed font at a fixed point size. Faces are created per
// render because opentype faces are not safe for concurrent use.
type Typeface struct {
	Font *opentype.Font
	Size float64
}

// NewFace returns a face at 72 DPI so Size maps to pixels.
func (t Typeface) NewFace() (font.Face, error) {
	return opentype.NewFace(t.Font, &opentype.FaceOptions{
		Size:    t.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// LoadTypeface resolves a font source: "go:regular", "go:medium",
// "go:bold" or a path to a TTF, OTF, TTC or WOFF2 file.
func LoadTypeface(source string, size float64) (Typeface, error) {
	if size <= 0 {
		return Typeface{}, fmt.Errorf("font %s: size must be positive", source)
	}
	data, ok := builtin[source]
	if !ok {
		if strings.HasPrefix(source, "go:") {
			return Typeface{}, fmt.Errorf("unknown builtin font %q", source)
		}
		var err error
		data, err = os.ReadFile(source)
		if err != nil {
			return Typeface{}, fmt.Errorf("reading font: %w", err)
		}
	}
	f, err := ParseFont(source, data)
	if err != nil {
		return Typeface{}, err
	}
	return Typeface{Font: f, Size: size}, nil
}

// ParseFont parses font data, converting WOFF/WOFF2 to SFNT and taking the
// first face of a collection.
func ParseFont(name string, data []byte) (*opentype.Font, error) {
	if isWOFF(name, data) {
		sfnt, err := sfntconv.ToSFNT(data)
		if err != nil {
			return nil, fmt.Errorf("convert %s to sfnt: %w", name, err)
		}
		data = sfnt
	}
	if bytes.HasPrefix(data, []byte("ttcf")) {
		coll, err := opentype.ParseCollection(data)
		if err != nil {
			return nil, fmt.Errorf("parse font collection %s: %w", name, err)
		}
		f, err := coll.Font(0)
		if err != nil {
			return nil, fmt.Errorf("font collection %s: %w", name, err)
		}
		return f, nil
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse font %s: %w", name, err)
	}
	return f, nil
}

// isWOFF checks the extension or the "wOFF"/"wOF2" magic.
func isWOFF(name string, data []byte) bool {
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".woff2") || strings.HasSuffix(lower, ".woff") {
		return true
	}
	return bytes.HasPrefix(data, []byte("wOF2")) || bytes.HasPrefix(data, []byte("wOFF"))
}
