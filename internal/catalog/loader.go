package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/youruser/certapp/internal/award"
)

//go:embed catalog.toml
var defaultCatalog string

// Default returns the built-in catalog.
func Default() *Catalog {
	c, err := Parse(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("catalog: built-in catalog is invalid: %v", err))
	}
	return c
}

// Load reads a catalog from a TOML file. An empty path yields the built-in
// catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog %s: %w", path, err)
	}
	c, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a TOML catalog.
func Parse(data string) (*Catalog, error) {
	var f file
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	c := &Catalog{
		product:    strings.TrimSpace(f.Product),
		defaultCat: strings.TrimSpace(f.Default),
		labels:     map[award.Tier]string{},
		categories: map[string]Category{},
	}
	for k, v := range f.Labels {
		t, err := award.ParseTier(k)
		if err != nil {
			return nil, fmt.Errorf("labels: %w", err)
		}
		c.labels[t] = v
	}
	for _, cat := range f.Categories {
		if err := validateCategory(cat); err != nil {
			return nil, err
		}
		if _, dup := c.categories[cat.Name]; dup {
			return nil, fmt.Errorf("duplicate category %q", cat.Name)
		}
		c.categories[cat.Name] = cat
		c.order = append(c.order, cat.Name)
	}
	if len(c.order) == 0 {
		return nil, fmt.Errorf("catalog defines no categories")
	}
	if c.defaultCat == "" {
		c.defaultCat = c.order[0]
	}
	if !c.Has(c.defaultCat) {
		return nil, fmt.Errorf("default category %q is not defined", c.defaultCat)
	}
	if c.product == "" {
		c.product = "certificates"
	}
	return c, nil
}

func validateCategory(cat Category) error {
	if strings.TrimSpace(cat.Name) == "" {
		return fmt.Errorf("category without a name")
	}
	if cat.Base == "" {
		return fmt.Errorf("category %q: base image is required", cat.Name)
	}
	for k, v := range cat.Overlays {
		if _, err := award.ParseTier(k); err != nil {
			return fmt.Errorf("category %q: %w", cat.Name, err)
		}
		if v == "" {
			return fmt.Errorf("category %q: empty overlay for %s", cat.Name, k)
		}
	}
	return nil
}
