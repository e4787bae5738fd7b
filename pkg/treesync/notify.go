package treesync

import (
	"context"
	"path/filepath"
	"time"

	"go.uber.org/zap"
)

// Notify reports changed paths. Triggers are coalesced: the first one starts
// the debounce window and the rebuild runs when it ends, with every path seen
// in between. When more than RapidThreshold triggers land within
// RapidWindow, the expanded set at that moment is kept and the next rebuild
// restores exactly that set.
func (c *Controller) Notify(paths ...string) {
	c.nmu.Lock()
	defer c.nmu.Unlock()
	if c.closed {
		return
	}
	for _, p := range paths {
		c.pending[filepath.Clean(p)] = struct{}{}
	}
	c.triggered = true
	c.guardLocked(c.opts.Now())

	if c.timer == nil {
		c.timer = time.AfterFunc(c.opts.Debounce, func() {
			if err := c.Flush(context.Background()); err != nil {
				c.log.Warn("treesync: rebuild", zap.Error(err))
			}
		})
	}
}

// guardLocked counts triggers inside the rapid window and takes the
// protected snapshot once the threshold is passed. Triggers age out of the
// window on their own; rebuilds do not reset the count.
func (c *Controller) guardLocked(now time.Time) {
	if c.opts.RapidThreshold <= 0 || c.opts.RapidWindow <= 0 {
		return
	}
	cutoff := now.Add(-c.opts.RapidWindow)
	kept := c.hits[:0]
	for _, h := range c.hits {
		if h.After(cutoff) {
			kept = append(kept, h)
		}
	}
	c.hits = append(kept, now)
	if len(c.hits) > c.opts.RapidThreshold && c.snapshot == nil {
		c.snapshot = make(map[string]bool)
		for _, tok := range c.Expanded() {
			c.snapshot[tok] = true
		}
		c.log.Debug("treesync: rapid updates, protecting expanded set", zap.Int("triggers", len(c.hits)))
	}
}

// Flush runs the pending rebuild now instead of waiting for the debounce
// window.
func (c *Controller) Flush(ctx context.Context) error {
	c.nmu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.closed || !c.triggered {
		c.nmu.Unlock()
		return nil
	}
	changed := make(map[string]bool, len(c.pending))
	for p := range c.pending {
		changed[p] = true
	}
	want := c.snapshot
	c.pending = make(map[string]struct{})
	c.triggered = false
	c.snapshot = nil
	c.nmu.Unlock()

	c.mu.Lock()
	c.rebuildLocked(ctx, &rebuild{changed: changed, want: want})
	c.persistLocked()
	c.mu.Unlock()
	c.changes.Emit(Change{Kind: ChangeTree})
	return nil
}
