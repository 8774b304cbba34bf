// Package fps measures frame rate over a short sliding window.
package fps

import (
	"math"
	"sync"
	"time"

	"github.com/talkheal/gesturemode/internal/history"
)

// DefaultWindow is the number of frame intervals averaged.
const DefaultWindow = 10

// Counter reports the mean frame rate of the last few Tick intervals.
type Counter struct {
	mu    sync.Mutex
	now   func() time.Time
	last  time.Time
	diffs *history.Buffer[time.Duration]
}

func New(window int) *Counter {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Counter{
		now:   time.Now,
		diffs: history.NewBuffer[time.Duration](window),
	}
}

// Tick records a frame and returns the current rate rounded to two
// decimals. The first Tick returns 0.
func (c *Counter) Tick() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if c.last.IsZero() {
		c.last = now
		return 0
	}
	c.diffs.Push(now.Sub(c.last))
	c.last = now

	return c.rateLocked()
}

// Rate returns the current rate without recording a frame.
func (c *Counter) Rate() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLocked()
}

func (c *Counter) rateLocked() float64 {
	diffs := c.diffs.Values()
	if len(diffs) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range diffs {
		total += d
	}
	if total <= 0 {
		return 0
	}
	mean := total.Seconds() / float64(len(diffs))
	return math.Round(100/mean) / 100
}

// Reset forgets all recorded frames.
func (c *Counter) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.last = time.Time{}
	c.diffs.Reset()
}
