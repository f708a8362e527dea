// Package text splits winner names into script runs and lays them out as
// horizontally centered lines of mixed Latin/CJK text.
package text

import (
	"strings"
	"unicode"
)

// Script is the font class a run of text is drawn with.
type Script int

const (
	Latin Script = iota
	CJK
)

func (s Script) String() string {
	if s == Latin {
		return "latin"
	}
	return "cjk"
}

// Segment is a maximal run of runes sharing one Script.
type Segment struct {
	Text   string
	Script Script
}

// Classify returns Latin for ASCII letters, digits, '&' and whitespace and
// CJK for everything else.
func Classify(r rune) Script {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '&':
		return Latin
	case unicode.IsSpace(r):
		return Latin
	}
	return CJK
}

// Segments splits text into ordered script runs. Runs that are empty after
// trimming are dropped; nothing else is removed.
func Segments(text string) []Segment {
	var (
		out    []Segment
		cur    strings.Builder
		script Script
	)
	flush := func() {
		if s := cur.String(); strings.TrimSpace(s) != "" {
			out = append(out, Segment{Text: s, Script: script})
		}
		cur.Reset()
	}
	for i, r := range text {
		s := Classify(r)
		if i > 0 && s != script {
			flush()
		}
		script = s
		cur.WriteRune(r)
	}
	if cur.Len() > 0 {
		flush()
	}
	return out
}

// singleScript reports whether every segment shares one script.
func singleScript(segs []Segment) (Script, bool) {
	if len(segs) == 0 {
		return 0, false
	}
	first := segs[0].Script
	for _, s := range segs[1:] {
		if s.Script != first {
			return 0, false
		}
	}
	return first, true
}
