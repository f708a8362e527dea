package catalog

import (
	"maps"
	"strings"

	"github.com/youruser/certapp/internal/award"
)

// Category is one competition track: a base template shared by every winner
// and one overlay per award tier.
type Category struct {
	Name     string            `toml:"name" json:"name"`
	Folder   string            `toml:"folder" json:"folder"`
	Base     string            `toml:"base" json:"base"`
	Overlays map[string]string `toml:"overlays" json:"overlays"`
}

// Catalog is the static category configuration. It is immutable once
// loaded and safe for concurrent use.
type Catalog struct {
	product    string
	defaultCat string
	labels     map[award.Tier]string
	categories map[string]Category
	order      []string
}

// file mirrors the TOML layout.
type file struct {
	Product    string            `toml:"product"`
	Default    string            `toml:"default"`
	Labels     map[string]string `toml:"labels"`
	Categories []Category        `toml:"category"`
}

// Product is the product name used as the export archive prefix.
func (c *Catalog) Product() string { return c.product }

// DefaultCategory is the category selected after a reset.
func (c *Catalog) DefaultCategory() string { return c.defaultCat }

// Categories returns category names in catalog order.
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Has reports whether name is a configured category.
func (c *Catalog) Has(name string) bool {
	_, ok := c.categories[name]
	return ok
}

// Category returns a copy of the configuration for name.
func (c *Catalog) Category(name string) (Category, bool) {
	cat, ok := c.categories[name]
	if ok {
		cat.Overlays = maps.Clone(cat.Overlays)
	}
	return cat, ok
}

// Label returns the display label of a tier, falling back to its id.
func (c *Catalog) Label(t award.Tier) string {
	if l, ok := c.labels[t]; ok && l != "" {
		return l
	}
	return string(t)
}

// TierOf accepts a tier id (any case) or a display label.
func (c *Catalog) TierOf(s string) (award.Tier, bool) {
	if t, err := award.ParseTier(strings.ToLower(s)); err == nil {
		return t, true
	}
	for t, l := range c.labels {
		if l == s {
			return t, true
		}
	}
	return "", false
}
