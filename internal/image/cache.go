package imagepkg

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/youruser/certapp/internal/award"
	"github.com/youruser/certapp/internal/metrics"
)

// BaseKey is the cache key of a category's base template.
func BaseKey(category string) string {
	return "base/" + category
}

// OverlayKey is the cache key of a tier overlay within a category.
func OverlayKey(category string, tier award.Tier) string {
	return "overlay/" + category + "/" + string(tier)
}

// Cache holds decoded images. Entries never expire; Reset is the only way
// to drop them. Concurrent misses on one key share a single load, which
// runs detached from any one caller and is cancelled only once every
// waiter has given up.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]image.Image
	flights map[string]*flight
	gen     uint64
	group   singleflight.Group
	metrics *metrics.Metrics
}

// flight is the shared state of an in-progress load.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	gen     uint64
	waiters int
}

func NewCache(m *metrics.Metrics) *Cache {
	return &Cache{
		entries: map[string]image.Image{},
		flights: map[string]*flight{},
		metrics: m,
	}
}

// Get returns a cached image.
func (c *Cache) Get(key string) (image.Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.entries[key]
	return img, ok
}

// GetOrLoad returns the image cached under key, calling load on a miss and
// storing its result. Failed loads are not cached. A caller whose ctx ends
// returns ctx.Err() without affecting other callers of the same key.
func (c *Cache) GetOrLoad(ctx context.Context, key string, load func(context.Context) (image.Image, error)) (image.Image, error) {
	c.mu.Lock()
	if img, ok := c.entries[key]; ok {
		c.mu.Unlock()
		c.metrics.IncCacheLookup(true)
		return img, nil
	}
	f, ok := c.flights[key]
	if !ok {
		lctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: lctx, cancel: cancel, gen: c.gen}
		c.flights[key] = f
	}
	f.waiters++
	ch := c.group.DoChan(key, func() (any, error) { return c.run(key, f, load) })
	c.mu.Unlock()
	c.metrics.IncCacheLookup(false)

	select {
	case res := <-ch:
		c.leave(key, f)
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(image.Image), nil
	case <-ctx.Done():
		c.leave(key, f)
		return nil, ctx.Err()
	}
}

func (c *Cache) run(key string, f *flight, load func(context.Context) (image.Image, error)) (any, error) {
	img, err := load(f.ctx)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.flights[key] == f {
		delete(c.flights, key)
	}
	if err != nil {
		return nil, err
	}
	// a Reset during the load wins over the stale result
	if c.gen == f.gen {
		c.entries[key] = img
	}
	return img, nil
}

// leave drops one waiter. The last one out cancels the load and detaches
// it so later callers start afresh.
func (c *Cache) leave(key string, f *flight) {
	c.mu.Lock()
	defer c.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if c.flights[key] == f {
		delete(c.flights, key)
		c.group.Forget(key)
	}
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[string]image.Image{}
	c.gen++
}

// Len returns the number of cached images.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
