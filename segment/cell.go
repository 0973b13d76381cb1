package segment

import (
	"sync/atomic"

	"github.com/opd-ai/livehost/video"
)

// Cell holds the most recent segmentation mask.
//
// It is a single slot with overwrite semantics: each Store replaces the
// previous mask whether or not it was ever read, and there is no
// correlation between a mask and the frame that produced it. Results that
// arrive out of order simply replace one another. Store and Load are safe
// to call from different goroutines.
type Cell struct {
	mask       atomic.Pointer[video.Mask]
	consumed   atomic.Bool
	stores     atomic.Uint64
	overwrites atomic.Uint64
}

// Store publishes m as the current mask. A nil mask is ignored.
func (c *Cell) Store(m *video.Mask) {
	if m == nil {
		return
	}
	prev := c.mask.Swap(m)
	if prev != nil && !c.consumed.Load() {
		c.overwrites.Add(1)
	}
	c.consumed.Store(false)
	c.stores.Add(1)
}

// Load returns the current mask, possibly stale, or nil if none was stored.
// The returned mask must be treated as read-only.
func (c *Cell) Load() *video.Mask {
	m := c.mask.Load()
	if m != nil {
		c.consumed.Store(true)
	}
	return m
}

// Reset empties the cell.
func (c *Cell) Reset() {
	c.mask.Store(nil)
	c.consumed.Store(false)
}

// Stores returns how many masks have been published.
func (c *Cell) Stores() uint64 {
	return c.stores.Load()
}

// Overwrites returns how many masks were replaced before any reader saw them.
func (c *Cell) Overwrites() uint64 {
	return c.overwrites.Load()
}
