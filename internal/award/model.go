package award

import "fmt"

// Tier is an award tier. The string value is the stable id used in
// configuration and the HTTP API.
type Tier string

const (
	Gold     Tier = "gold"
	Silver   Tier = "silver"
	Bronze   Tier = "bronze"
	Finalist Tier = "finalist"
)

// Tiers lists every tier in collection order.
var Tiers = []Tier{Gold, Silver, Bronze, Finalist}

// Valid reports whether t is one of the known tiers.
func (t Tier) Valid() bool {
	for _, k := range Tiers {
		if k == t {
			return true
		}
	}
	return false
}

// ParseTier converts an id like "gold" into a Tier.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown award tier %q", s)
	}
	return t, nil
}

// Record is one certificate to render: a single winner of a single tier.
type Record struct {
	Name     string `json:"name"`
	Tier     Tier   `json:"tier"`
	Category string `json:"category"`
	Issue    string `json:"issue,omitempty"`
	Theme    string `json:"theme,omitempty"`
}

// Caption is the upper text line: issue and theme joined by a space, or
// whichever one is set.
func (r Record) Caption() string {
	switch {
	case r.Issue != "" && r.Theme != "":
		return r.Issue + " " + r.Theme
	case r.Issue != "":
		return r.Issue
	default:
		return r.Theme
	}
}
