package imagepkg

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"

	"github.com/disintegration/imaging"
	"golang.org/x/sync/errgroup"

	"github.com/youruser/certapp/internal/award"
	"github.com/youruser/certapp/internal/catalog"
)

// TextStamper draws the caption and name lines onto a finished canvas.
type TextStamper interface {
	Stamp(dst draw.Image, caption, name string) error
}

// Compositor renders certificates: base template, tier overlay, optional
// verification stamp and text.
type Compositor struct {
	catalog *catalog.Catalog
	loader  *Loader
	cache   *Cache
	text    TextStamper
	stamp   *Stamp
	logger  *slog.Logger
}

// CompositorOption configures a Compositor.
type CompositorOption func(*Compositor)

// WithStamp enables the verification QR stamp.
func WithStamp(s *Stamp) CompositorOption {
	return func(c *Compositor) { c.stamp = s }
}

func WithCompositorLogger(logger *slog.Logger) CompositorOption {
	return func(c *Compositor) { c.logger = logger }
}

func NewCompositor(cat *catalog.Catalog, loader *Loader, cache *Cache, text TextStamper, opts ...CompositorOption) *Compositor {
	c := &Compositor{
		catalog: cat,
		loader:  loader,
		cache:   cache,
		text:    text,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Assets are the resolved asset paths of one certificate.
type Assets struct {
	Base    string `json:"base"`
	Overlay string `json:"overlay"`
}

// Resolve returns the asset paths used for rec.
func (c *Compositor) Resolve(rec award.Record) (Assets, error) {
	base, err := c.catalog.ResolveBase(rec.Category)
	if err != nil {
		return Assets{}, err
	}
	overlay, err := c.catalog.ResolveOverlay(rec.Category, rec.Tier)
	if err != nil {
		return Assets{}, err
	}
	return Assets{Base: base, Overlay: overlay}, nil
}

// Render composes the certificate for rec. A non-zero hue rotates the base
// layer only.
func (c *Compositor) Render(ctx context.Context, rec award.Record, hue int) (*image.NRGBA, error) {
	assets, err := c.Resolve(rec)
	if err != nil {
		return nil, err
	}

	var base, overlay image.Image
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		img, err := c.cache.GetOrLoad(gctx, BaseKey(rec.Category), c.loadFunc(assets.Base))
		base = img
		return err
	})
	g.Go(func() error {
		img, err := c.cache.GetOrLoad(gctx, OverlayKey(rec.Category, rec.Tier), c.loadFunc(assets.Overlay))
		overlay = img
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	canvas := Compose(base, overlay, hue)
	if c.stamp != nil {
		canvas, err = c.stamp.Draw(canvas, rec)
		if err != nil {
			return nil, fmt.Errorf("verification stamp: %w", err)
		}
	}
	if err := c.text.Stamp(canvas, rec.Caption(), rec.Name); err != nil {
		return nil, fmt.Errorf("stamping text: %w", err)
	}
	return canvas, nil
}

func (c *Compositor) loadFunc(path string) func(context.Context) (image.Image, error) {
	return func(ctx context.Context) (image.Image, error) {
		return c.loader.Load(ctx, path)
	}
}

// Compose draws base and overlay centered on a transparent canvas sized to
// the larger of the two in each dimension. Only the base layer goes through
// the hue rotation.
func Compose(base, overlay image.Image, hue int) *image.NRGBA {
	bb, ob := base.Bounds(), overlay.Bounds()
	w := max(bb.Dx(), ob.Dx())
	h := max(bb.Dy(), ob.Dy())
	canvas := imaging.New(w, h, color.NRGBA{})

	layer := base
	if hue != 0 {
		layer = HueRotation(hue).Apply(base)
	}
	canvas = imaging.Paste(canvas, layer, image.Pt((w-bb.Dx())/2, (h-bb.Dy())/2))

	// alpha-blended; transparent overlay pixels leave the canvas as is
	at := image.Pt((w-ob.Dx())/2, (h-ob.Dy())/2)
	draw.Draw(canvas, image.Rectangle{Min: at, Max: at.Add(ob.Size())}, overlay, ob.Min, draw.Over)
	return canvas
}

// Preload warms the cache with every catalog asset. Failures are logged
// and counted, not returned.
func (c *Compositor) Preload(ctx context.Context) (loaded, failed int) {
	load := func(key, path string) {
		if _, err := c.cache.GetOrLoad(ctx, key, c.loadFunc(path)); err != nil {
			c.logger.Error("preload failed", "path", path, "error", err)
			failed++
			return
		}
		loaded++
	}
	for _, name := range c.catalog.Categories() {
		if base, err := c.catalog.ResolveBase(name); err == nil {
			load(BaseKey(name), base)
		}
		for _, tier := range award.Tiers {
			overlay, err := c.catalog.ResolveOverlay(name, tier)
			if err != nil {
				continue
			}
			load(OverlayKey(name, tier), overlay)
		}
	}
	c.logger.Info("asset preload finished", "loaded", loaded, "failed", failed)
	return loaded, failed
}

// Reload drops every cached image so the next render fetches fresh assets.
func (c *Compositor) Reload() {
	c.cache.Reset()
	c.logger.Info("asset cache cleared")
}
