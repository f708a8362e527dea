// Package session holds per-user preview state. Every command returns a new
// State; nothing is mutated in place.
package session

import (
	"slices"

	"github.com/youruser/certapp/internal/award"
	"github.com/youruser/certapp/internal/batch"
)

// State is one step of a preview session. Gen changes whenever the
// rendered preview would change.
type State struct {
	Category string
	Hue      int
	Issue    string
	Theme    string
	Records  []award.Record
	Index    int
	Gen      uint64
}

func New(category string) State {
	return State{Category: category}
}

func (s State) bump() State {
	s.Gen++
	return s
}

// Generate collects a new batch from per-tier winner lists and starts it at
// index 0. An empty batch leaves the state unchanged.
func (s State) Generate(winners map[award.Tier]string, issue, theme string) (State, error) {
	recs := award.Collect(winners, s.Category, issue, theme)
	if len(recs) == 0 {
		return s, batch.ErrEmptyBatch
	}
	s.Issue, s.Theme = issue, theme
	s.Records = recs
	s.Index = 0
	return s.bump(), nil
}

func (s State) Total() int { return len(s.Records) }

func (s State) Empty() bool { return len(s.Records) == 0 }

// Next moves forward; a no-op on the last record.
func (s State) Next() State {
	if s.Index >= len(s.Records)-1 {
		return s
	}
	s.Index++
	return s.bump()
}

// Prev moves back; a no-op on the first record.
func (s State) Prev() State {
	if s.Index <= 0 {
		return s
	}
	s.Index--
	return s.bump()
}

// Jump goes to index i. Out of range indexes leave the state unchanged.
func (s State) Jump(i int) State {
	if i < 0 || i >= len(s.Records) || i == s.Index {
		return s
	}
	s.Index = i
	return s.bump()
}

// WithHue sets the base layer hue, clamped to [0, 360].
func (s State) WithHue(hue int) State {
	hue = min(max(hue, 0), 360)
	if hue == s.Hue {
		return s
	}
	s.Hue = hue
	return s.bump()
}

func (s State) ResetHue() State { return s.WithHue(0) }

// WithCategory switches category and drops the current batch, since its
// records were built for the previous category.
func (s State) WithCategory(category string) State {
	if category == s.Category {
		return s
	}
	s.Category = category
	s.Records = nil
	s.Index = 0
	return s.bump()
}

// Reset returns to the initial form: default category, hue 0, empty
// fields and no batch. The generation keeps counting.
func (s State) Reset(defaultCategory string) State {
	return State{Category: defaultCategory, Gen: s.Gen + 1}
}

// Current returns the record being previewed.
func (s State) Current() (award.Record, bool) {
	if s.Empty() {
		return award.Record{}, false
	}
	return s.Records[s.Index], true
}

// Snapshot returns a copy of the records safe to hand to other goroutines.
func (s State) Snapshot() []award.Record {
	return slices.Clone(s.Records)
}

// Labeler maps tiers to display labels.
type Labeler interface {
	Label(award.Tier) string
}

// Info is the preview indicator shown next to the rendered certificate.
type Info struct {
	Category string     `json:"category"`
	Hue      int        `json:"hue"`
	Issue    string     `json:"issue,omitempty"`
	Theme    string     `json:"theme,omitempty"`
	Index    int        `json:"index"`
	Total    int        `json:"total"`
	Empty    bool       `json:"empty"`
	HasPrev  bool       `json:"has_prev"`
	HasNext  bool       `json:"has_next"`
	Tier     award.Tier `json:"tier,omitempty"`
	Label    string     `json:"label,omitempty"`
	Name     string     `json:"name,omitempty"`
	Gen      uint64     `json:"gen"`
}

func (s State) Info(labels Labeler) Info {
	info := Info{
		Category: s.Category,
		Hue:      s.Hue,
		Issue:    s.Issue,
		Theme:    s.Theme,
		Index:    s.Index,
		Total:    len(s.Records),
		Empty:    s.Empty(),
		HasPrev:  !s.Empty() && s.Index > 0,
		HasNext:  !s.Empty() && s.Index < len(s.Records)-1,
		Gen:      s.Gen,
	}
	if rec, ok := s.Current(); ok {
		info.Tier = rec.Tier
		info.Name = rec.Name
		if labels != nil {
			info.Label = labels.Label(rec.Tier)
		}
	}
	return info
}
