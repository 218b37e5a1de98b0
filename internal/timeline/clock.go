package timeline

import "time"

// Clock tracks playback: the active frame and the time spent moving from it
// toward the next. Nothing else survives between ticks.
type Clock struct {
	Index   int
	Elapsed time.Duration
	Playing bool
}

// Start begins playback from frame index.
func (c *Clock) Start(index int) {
	c.Index = index
	c.Elapsed = 0
	c.Playing = true
}

// Stop halts playback and discards the in-flight segment.
func (c *Clock) Stop() {
	c.Playing = false
	c.Elapsed = 0
}

// Advance moves the clock by dt and returns the frame index and progress to
// interpolate at. A stopped clock stays on its frame at progress 0.
func (c *Clock) Advance(tl Timeline, dt time.Duration) (int, float64) {
	if tl.Len() == 0 {
		return 0, 0
	}
	if c.Index < 0 || c.Index >= tl.Len() {
		c.Index = 0
		c.Elapsed = 0
	}
	if !c.Playing {
		return c.Index, 0
	}
	if tl.Total() <= 0 {
		return c.Index, 0
	}
	c.Elapsed += dt
	for {
		seg := tl.frames[tl.Next(c.Index)].Duration
		if c.Elapsed < seg {
			return c.Index, float64(c.Elapsed) / float64(seg)
		}
		c.Elapsed -= seg
		c.Index = tl.Next(c.Index)
	}
}
