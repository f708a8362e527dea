package session

import (
	"sync"
	"time"
)

// DefaultHueDebounce is roughly one display frame.
const DefaultHueDebounce = 16 * time.Millisecond

// Coalescer runs only the last function submitted for a key once the key
// has been quiet for the delay window. Each submission restarts the
// window; earlier submissions are dropped.
type Coalescer struct {
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*pendingCall
}

type pendingCall struct {
	timer *time.Timer
	fn    func()
}

func NewCoalescer(delay time.Duration) *Coalescer {
	if delay < 0 {
		delay = 0
	}
	return &Coalescer{delay: delay, pending: make(map[string]*pendingCall)}
}

// Submit schedules fn for key, replacing anything still pending for it and
// restarting its window.
func (c *Coalescer) Submit(key string, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[key]; ok && p.timer.Stop() {
		p.fn = fn
		p.timer.Reset(c.delay)
		return
	}
	// A timer that already fired is blocked in fire; replacing the entry
	// makes it a no-op.
	p := &pendingCall{fn: fn}
	p.timer = time.AfterFunc(c.delay, func() { c.fire(key, p) })
	c.pending[key] = p
}

func (c *Coalescer) fire(key string, p *pendingCall) {
	c.mu.Lock()
	if c.pending[key] != p {
		c.mu.Unlock()
		return
	}
	delete(c.pending, key)
	fn := p.fn
	c.mu.Unlock()
	fn()
}

// Flush runs the pending call for key now, if any.
func (c *Coalescer) Flush(key string) {
	c.mu.Lock()
	p, ok := c.pending[key]
	if ok {
		p.timer.Stop()
		delete(c.pending, key)
	}
	c.mu.Unlock()
	if ok {
		p.fn()
	}
}

// Cancel drops the pending call for key.
func (c *Coalescer) Cancel(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[key]; ok {
		p.timer.Stop()
		delete(c.pending, key)
	}
}

// Pending reports the number of keys with a scheduled call.
func (c *Coalescer) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}
