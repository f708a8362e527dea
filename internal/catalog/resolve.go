package catalog

import (
	"errors"
	"fmt"
	"path"

	"github.com/youruser/certapp/internal/award"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrUnknownAwardTier = errors.New("unknown award tier")
)

// ResolveBase returns the asset path of a category's base template.
func (c *Catalog) ResolveBase(category string) (string, error) {
	cat, ok := c.categories[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return path.Join(cat.Folder, cat.Base), nil
}

// ResolveOverlay returns the asset path of the overlay for a tier within a
// category. Filenames come from the catalog entry as configured.
func (c *Catalog) ResolveOverlay(category string, tier award.Tier) (string, error) {
	cat, ok := c.categories[category]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	name, ok := cat.Overlays[string(tier)]
	if !ok {
		return "", fmt.Errorf("%w: %q in category %q", ErrUnknownAwardTier, tier, category)
	}
	return path.Join(cat.Folder, name), nil
}
